package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/config"
	"github.com/redbco/redb-dbaccess/pkg/database"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

var (
	configFile     string
	connectionName string
	connectionURL  string
	logLevel       string
	passwordPrompt bool
	overrides      adapter.Config
)

func setupConnectionFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", defaultConfigPath(), "Path to the connection profile file")
	flags.StringVarP(&connectionName, "connection", "c", "", "Connection profile to use")
	flags.StringVar(&connectionURL, "url", "", "Connection URL, e.g. mysql://user@host:3306/db?prefix=jos_")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&overrides.Driver, "driver", "", "Driver name, e.g. mysql, pgsql, sqlite3, sqlserver")
	flags.StringVar(&overrides.Host, "host", "", "Host, host:port or host:/socket")
	flags.IntVar(&overrides.Port, "port", 0, "Port")
	flags.StringVarP(&overrides.User, "user", "u", "", "User name")
	flags.StringVarP(&overrides.Database, "database", "d", "", "Database to select")
	flags.StringVar(&overrides.TablePrefix, "prefix", "", "Table prefix substituted for #__")
	flags.BoolVarP(&passwordPrompt, "password-prompt", "p", false, "Prompt for the password")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dbaccess.yaml"
	}
	return filepath.Join(home, ".redb", "dbaccess.yaml")
}

// loadConnection builds the connection configuration from the profile file,
// when there is one, and the command line flags.
func loadConnection(resolvePassword bool) (adapter.Config, error) {
	var (
		cfg  adapter.Config
		file *config.Config
	)

	_, statErr := os.Stat(configFile)
	explicit := rootCmd.PersistentFlags().Lookup("config").Changed
	switch {
	case statErr == nil:
		loaded, err := config.Load(configFile)
		if err != nil {
			return cfg, err
		}
		file = loaded
	case explicit || !errors.Is(statErr, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read config file: %w", statErr)
	}

	switch {
	case connectionURL != "":
		c, err := adapter.ConfigFromURL(connectionURL)
		if err != nil {
			return cfg, err
		}
		cfg = c
	case file != nil && (connectionName != "" || len(file.Connections) > 0) && overrides.Driver == "":
		c, err := file.Connection(connectionName)
		if err != nil {
			return cfg, err
		}
		cfg = c
	default:
		c, err := config.ApplyEnv(cfg)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if file != nil && logLevel == "" {
		logLevel = file.Logging.Level
	}

	flags := rootCmd.PersistentFlags()
	for name, apply := range map[string]func(){
		"driver":   func() { cfg.Driver = overrides.Driver },
		"host":     func() { cfg.Host = overrides.Host },
		"port":     func() { cfg.Port = overrides.Port },
		"user":     func() { cfg.User = overrides.User },
		"database": func() { cfg.Database = overrides.Database },
		"prefix":   func() { cfg.TablePrefix = overrides.TablePrefix },
	} {
		if flags.Lookup(name).Changed {
			apply()
		}
	}

	if cfg.Driver == "" {
		return cfg, fmt.Errorf("no driver configured: pass --driver or select a connection profile")
	}
	if errs := config.ValidateConnection("flags", cfg); len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}

	if !resolvePassword {
		return cfg, nil
	}
	if passwordPrompt {
		fmt.Fprint(os.Stderr, "Password: ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return cfg, fmt.Errorf("failed to read password: %v", err)
		}
		cfg.Password = string(passwordBytes)
		cfg.KeyringService = ""
	}
	return database.ResolveCredentials(cfg, nil)
}

// openDB resolves the connection and wraps a new driver in a DB. The driver
// connects on first use.
func openDB() (*database.DB, error) {
	cfg, err := loadConnection(true)
	if err != nil {
		return nil, err
	}

	log := logger.New("dbaccess", version)
	log.SetOutput(os.Stderr)
	if level, err := logger.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	}

	return database.Open(cfg, nil, database.WithLogger(log))
}
