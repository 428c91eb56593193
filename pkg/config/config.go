package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/database"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REDB_DBACCESS_"

// Config is the content of a connection profile file.
type Config struct {
	Default     string                    `yaml:"default"`
	Logging     LoggingConfig             `yaml:"logging"`
	Connections map[string]adapter.Config `yaml:"connections"`
}

// LoggingConfig selects the logger level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a profile file. Environment overrides are applied
// and the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses profile file content.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Set defaults
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Connections == nil {
		config.Connections = make(map[string]adapter.Config)
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPrefix + "CONNECTION"); v != "" {
		c.Default = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connection returns the named profile with environment overrides applied.
// An empty name selects the default profile, or the only profile when the
// file has exactly one.
func (c *Config) Connection(name string) (adapter.Config, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.Connections) == 1 {
		name = c.Names()[0]
	}
	if name == "" {
		return adapter.Config{}, fmt.Errorf("no connection selected and no default connection configured")
	}

	cfg, ok := c.Connections[name]
	if !ok {
		return adapter.Config{}, fmt.Errorf("connection %q is not configured", name)
	}
	return ApplyEnv(cfg.Clone())
}

// Resolve returns the named profile with its password filled in from the
// keyring when the profile names a keyring service.
func (c *Config) Resolve(name string, store database.SecretStore) (adapter.Config, error) {
	cfg, err := c.Connection(name)
	if err != nil {
		return adapter.Config{}, err
	}
	return database.ResolveCredentials(cfg, store)
}

// LogLevel returns the configured logger level.
func (c *Config) LogLevel() logger.Level {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// ApplyEnv overrides connection fields from REDB_DBACCESS_* variables.
func ApplyEnv(cfg adapter.Config) (adapter.Config, error) {
	strs := map[string]*string{
		"DRIVER":          &cfg.Driver,
		"HOST":            &cfg.Host,
		"SOCKET":          &cfg.Socket,
		"USER":            &cfg.User,
		"PASSWORD":        &cfg.Password,
		"DATABASE":        &cfg.Database,
		"PREFIX":          &cfg.TablePrefix,
		"SSL_MODE":        &cfg.SSLMode,
		"KEYRING_SERVICE": &cfg.KeyringService,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sTIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.Timeout = timeout
	}
	if v := os.Getenv(EnvPrefix + "SELECT"); v != "" {
		sel, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sSELECT %q: %w", EnvPrefix, v, err)
		}
		cfg.Select = adapter.GetBoolPtr(sel)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SQL_MODE"); ok {
		cfg.SQLModes = splitModes(v)
	}
	return cfg, nil
}

func splitModes(value string) []string {
	modes := []string{}
	for _, m := range strings.Split(value, ",") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, strings.ToUpper(m))
		}
	}
	return modes
}

// Validate reports every problem found in the file at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Default != "" {
		if _, ok := c.Connections[c.Default]; !ok {
			errs = append(errs, fmt.Errorf("default: connection %q is not configured", c.Default))
		}
	}
	for _, name := range c.Names() {
		errs = append(errs, ValidateConnection(name, c.Connections[name])...)
	}
	return errors.Join(errs...)
}

// ValidateConnection checks one connection profile.
func ValidateConnection(name string, cfg adapter.Config) []error {
	var errs []error

	if cfg.Driver == "" {
		errs = append(errs, fmt.Errorf("connections.%s.driver is required", name))
	} else if _, ok := dbcapabilities.ParseID(adapter.SanitizeName(cfg.Driver)); !ok {
		errs = append(errs, fmt.Errorf("connections.%s.driver: unknown driver %q", name, cfg.Driver))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("connections.%s.port: %d is out of range", name, cfg.Port))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("connections.%s.timeout must not be negative", name))
	}
	if cfg.Password != "" && cfg.KeyringService != "" {
		errs = append(errs, fmt.Errorf("connections.%s: password and keyring_service are mutually exclusive", name))
	}
	switch cfg.SSLMode {
	case "", "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		errs = append(errs, fmt.Errorf("connections.%s.ssl_mode: unknown mode %q", name, cfg.SSLMode))
	}
	return errs
}
