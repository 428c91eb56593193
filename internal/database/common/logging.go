package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/redbco/redb-dbaccess/pkg/logger"
)

// DatabaseLogContext provides structured context for database logging
type DatabaseLogContext struct {
	DatabaseType string
	DriverID     string
	Host         string
	Port         int
	Socket       string
	Database     string
	Operation    string
}

// DatabaseLogger provides unified logging for driver lifecycle events and
// executed statements. A nil underlying logger discards everything.
type DatabaseLogger struct {
	logger *logger.Logger
}

// NewDatabaseLogger creates a new database logger
func NewDatabaseLogger(l *logger.Logger) *DatabaseLogger {
	return &DatabaseLogger{logger: l}
}

// LogConnectionAttempt logs when a connection attempt is starting
func (dl *DatabaseLogger) LogConnectionAttempt(ctx DatabaseLogContext) {
	if dl.logger == nil {
		return
	}
	dl.logger.Debug("%s", dl.formatConnectionMessage("Attempting connection", ctx))
}

// LogConnectionSuccess logs successful database connections
func (dl *DatabaseLogger) LogConnectionSuccess(ctx DatabaseLogContext) {
	if dl.logger == nil {
		return
	}
	dl.logger.Info("%s", dl.formatConnectionMessage("Connection established", ctx))
}

// LogConnectionFailure logs connection failures
func (dl *DatabaseLogger) LogConnectionFailure(ctx DatabaseLogContext, err error) {
	if dl.logger == nil {
		return
	}
	dl.logger.Error("%s: %v", dl.formatConnectionMessage("Connection failed", ctx), err)
}

// LogDisconnection logs a completed disconnect
func (dl *DatabaseLogger) LogDisconnection(ctx DatabaseLogContext, err error) {
	if dl.logger == nil {
		return
	}
	if err != nil {
		dl.logger.Warn("%s: %v", dl.formatConnectionMessage("Disconnection failed", ctx), err)
		return
	}
	dl.logger.Debug("%s", dl.formatConnectionMessage("Disconnection completed", ctx))
}

// LogWarning logs a non-fatal problem such as a rejected session setting
func (dl *DatabaseLogger) LogWarning(ctx DatabaseLogContext, message string, err error) {
	if dl.logger == nil {
		return
	}
	dl.logger.Warn("%s: %v", dl.formatConnectionMessage(message, ctx), err)
}

// LogStatement logs an executed statement. Promoted statements are logged at
// info level, everything else at debug level.
func (dl *DatabaseLogger) LogStatement(ctx DatabaseLogContext, query string, took time.Duration, err error, promoted bool) {
	if dl.logger == nil {
		return
	}

	msg := fmt.Sprintf("[%s] %s (%s)", ctx.DatabaseType, compactQuery(query), took.Round(time.Microsecond))
	switch {
	case err != nil:
		dl.logger.Warn("%s failed: %v", msg, err)
	case promoted:
		dl.logger.Info("%s", msg)
	default:
		dl.logger.Debug("%s", msg)
	}
}

// formatConnectionMessage creates a consistent connection log message
func (dl *DatabaseLogger) formatConnectionMessage(action string, ctx DatabaseLogContext) string {
	var parts []string
	parts = append(parts, action)

	if ctx.DatabaseType != "" {
		parts = append(parts, fmt.Sprintf("to %s", ctx.DatabaseType))
	}

	switch {
	case ctx.Socket != "":
		parts = append(parts, fmt.Sprintf("via %s", ctx.Socket))
	case ctx.Host != "" && ctx.Port > 0:
		parts = append(parts, fmt.Sprintf("at %s:%d", ctx.Host, ctx.Port))
	case ctx.Host != "":
		parts = append(parts, fmt.Sprintf("at %s", ctx.Host))
	}

	if ctx.Database != "" {
		parts = append(parts, fmt.Sprintf("database %s", ctx.Database))
	}

	if ctx.DriverID != "" {
		parts = append(parts, fmt.Sprintf("(driver %s)", shortID(ctx.DriverID)))
	}

	return strings.Join(parts, " ")
}

func compactQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
