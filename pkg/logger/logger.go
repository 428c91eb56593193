package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for console output
const (
	ColorReset        = "\033[0m"
	ColorRed          = "\033[31m"
	ColorYellow       = "\033[33m"
	ColorGreen        = "\033[32m"
	ColorCyan         = "\033[36m"
	ColorBrightRed    = "\033[91m"
	ColorBrightYellow = "\033[93m"
	ColorBrightGray   = "\033[90m"
)

// Column widths for aligned console output
const (
	ComponentNameWidth = 16
	LogLevelWidth      = 7 // icons add +2
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// LogEntry represents a single log entry
type LogEntry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Fields    map[string]string
}

// Logger provides leveled console logging with subscriber fan-out.
// A nil *Logger is valid and discards everything.
type Logger struct {
	component string
	version   string

	mu           sync.RWMutex
	out          io.Writer
	level        Level
	subscribers  []chan LogEntry
	colorEnabled bool
	quiet        bool
}

// New creates a new logger instance writing to stdout at info level.
func New(component, version string) *Logger {
	return &Logger{
		component:    component,
		version:      version,
		out:          os.Stdout,
		level:        LevelInfo,
		subscribers:  make([]chan LogEntry, 0),
		colorEnabled: isTerminal(),
	}
}

// Named returns a logger for a sub-component sharing output, level and
// subscribers with l.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		component:    component,
		version:      l.version,
		out:          l.out,
		level:        l.level,
		subscribers:  l.subscribers,
		colorEnabled: l.colorEnabled,
		quiet:        l.quiet,
	}
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// SetOutput redirects console output. Color is disabled for non-stdout writers.
func (l *Logger) SetOutput(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.out = w
	l.colorEnabled = w == os.Stdout && isTerminal()
	l.mu.Unlock()
}

// SetLevel sets the minimum level written to the console. Subscribers still
// receive every entry.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// DisableConsoleOutput stops console output; subscribers keep receiving entries.
func (l *Logger) DisableConsoleOutput() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.quiet = true
	l.mu.Unlock()
}

// Subscribe returns a channel to receive log entries
func (l *Logger) Subscribe() <-chan LogEntry {
	ch := make(chan LogEntry, 100)
	if l == nil {
		return ch
	}

	l.mu.Lock()
	l.subscribers = append(l.subscribers, ch)
	l.mu.Unlock()

	return ch
}

// getColorForLevel returns the appropriate color for a log level
func (l *Logger) getColorForLevel(level Level) string {
	switch level {
	case LevelDebug:
		return ColorBrightGray
	case LevelInfo:
		return ColorGreen
	case LevelWarn:
		return ColorBrightYellow
	case LevelError:
		return ColorBrightRed
	default:
		return ColorReset
	}
}

// formatComponent truncates and pads the component name for consistent column width
func formatComponent(name string) string {
	if len(name) > ComponentNameWidth {
		return name[:ComponentNameWidth-1] + "…"
	}
	return fmt.Sprintf("%-*s", ComponentNameWidth, name)
}

// formatLogLevel pads log level for consistent column width and adds visual indicators
func formatLogLevel(level Level) string {
	levelStr := level.String()

	switch level {
	case LevelError:
		levelStr = "✗ " + levelStr
	case LevelWarn:
		levelStr = "⚠ " + levelStr
	case LevelInfo:
		levelStr = "ℹ " + levelStr
	case LevelDebug:
		levelStr = "◦ " + levelStr
	}

	return fmt.Sprintf("%-*s", LogLevelWidth+2, levelStr)
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if l == nil {
		return
	}

	now := time.Now()
	entry := LogEntry{
		Time:      now,
		Level:     level.String(),
		Component: l.component,
		Message:   message,
		Fields:    fields,
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.quiet && level >= l.level && l.out != nil {
		timestamp := now.Format("2006-01-02 15:04:05.000")

		color, reset, stamp := "", "", ""
		if l.colorEnabled {
			color, reset, stamp = l.getColorForLevel(level), ColorReset, ColorCyan
		}

		line := fmt.Sprintf("%s[%s]%s [%s] [%s%s%s] %s",
			stamp, timestamp, reset, formatComponent(l.component), color, formatLogLevel(level), reset, message)
		if len(fields) > 0 {
			line += " " + formatFields(fields)
		}

		fmt.Fprintln(l.out, line)
	}

	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// Skip if channel is full
		}
	}
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, " ")
}

// Debug logs a debug message with optional formatting
func (l *Logger) Debug(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log(LevelDebug, message, nil)
}

// Info logs an info message with optional formatting
func (l *Logger) Info(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log(LevelInfo, message, nil)
}

// Warn logs a warning message with optional formatting
func (l *Logger) Warn(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log(LevelWarn, message, nil)
}

// Error logs an error message with optional formatting
func (l *Logger) Error(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	l.log(LevelError, message, nil)
}

// WithFields logs a message with additional fields
func (l *Logger) WithFields(fields map[string]string) *LogContext {
	return &LogContext{
		logger: l,
		fields: fields,
	}
}

// LogContext provides field-based logging
type LogContext struct {
	logger *Logger
	fields map[string]string
}

func (c *LogContext) Debug(message string) {
	c.logger.log(LevelDebug, message, c.fields)
}

func (c *LogContext) Info(message string) {
	c.logger.log(LevelInfo, message, c.fields)
}

func (c *LogContext) Warn(message string) {
	c.logger.log(LevelWarn, message, c.fields)
}

func (c *LogContext) Error(message string) {
	c.logger.log(LevelError, message, c.fields)
}
