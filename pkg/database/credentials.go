package database

import (
	"errors"
	"fmt"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/keyring"
)

// SecretStore is the part of keyring.Store used for database passwords.
type SecretStore interface {
	Get(service, user string) (string, error)
	Set(service, user, secret string) error
}

// ResolveCredentials fills in the password of cfg from the keyring when the
// configuration names a keyring service and carries no password of its own.
// A nil store uses the store configured by the environment.
func ResolveCredentials(cfg adapter.Config, store SecretStore) (adapter.Config, error) {
	if cfg.Password != "" || cfg.KeyringService == "" {
		return cfg, nil
	}
	if store == nil {
		store = keyring.NewStoreFromEnv()
	}

	user := cfg.UserOrDefault()
	password, err := store.Get(cfg.KeyringService, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return cfg, fmt.Errorf("database password for %s not found in keyring service %s - has it been stored? %w",
			user, cfg.KeyringService, err)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to retrieve database password from keyring: %w", err)
	}

	out := cfg.Clone()
	out.Password = password
	return out, nil
}

// StorePassword saves password under the configuration's keyring service.
func StorePassword(cfg adapter.Config, store SecretStore, password string) error {
	if cfg.KeyringService == "" {
		return adapter.NewValidationError("store password", "configuration has no keyring service")
	}
	if store == nil {
		store = keyring.NewStoreFromEnv()
	}
	return store.Set(cfg.KeyringService, cfg.UserOrDefault(), password)
}

// Open resolves credentials, builds the named driver through the global
// registry and wraps it in a DB. The driver connects lazily on first use.
func Open(cfg adapter.Config, store SecretStore, opts ...Option) (*DB, error) {
	resolved, err := ResolveCredentials(cfg, store)
	if err != nil {
		return nil, err
	}

	db := New(nil, opts...)
	if resolved.IsSystemDatabase() {
		db.log.Warn("connection %s selects system database %s", resolved.Driver, resolved.Database)
	}
	drv, err := adapter.GetDriver(resolved.Driver, resolved, adapter.WithLogger(db.log))
	if err != nil {
		return nil, err
	}
	db.driver = drv
	return db, nil
}
