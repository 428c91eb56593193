package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/keyring"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

func fileStore(t *testing.T) *keyring.Store {
	return keyring.NewStore(keyring.BackendFile, filepath.Join(t.TempDir(), "keyring.json"), "test")
}

func TestResolveCredentials(t *testing.T) {
	store := fileStore(t)
	cfg := adapter.Config{Driver: "mysql", User: "app", KeyringService: "redb-dbaccess-shop"}

	_, err := ResolveCredentials(cfg, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	require.NoError(t, StorePassword(cfg, store, "s3cret"))

	resolved, err := ResolveCredentials(cfg, store)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", resolved.Password)
	assert.Empty(t, cfg.Password, "the input configuration is not modified")
}

func TestResolveCredentialsKeepsExplicitPassword(t *testing.T) {
	cfg := adapter.Config{Password: "given", KeyringService: "svc"}
	resolved, err := ResolveCredentials(cfg, fileStore(t))
	require.NoError(t, err)
	assert.Equal(t, "given", resolved.Password)

	resolved, err = ResolveCredentials(adapter.Config{}, nil)
	require.NoError(t, err)
	assert.Empty(t, resolved.Password)
}

func TestStorePasswordRequiresService(t *testing.T) {
	err := StorePassword(adapter.Config{}, fileStore(t), "x")
	assert.True(t, adapter.IsValidationError(err))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(adapter.Config{Driver: "oracle"}, nil)
	require.Error(t, err)
	assert.True(t, adapter.IsUnsupportedAdapter(err))
}

func TestOpenWarnsOnSystemDatabase(t *testing.T) {
	log := logger.New("test", "dev")
	log.DisableConsoleOutput()
	entries := log.Subscribe()

	_, _ = Open(adapter.Config{Driver: "pgsql", Database: "postgres"}, nil, WithLogger(log))

	select {
	case entry := <-entries:
		assert.Equal(t, "WARN", entry.Level)
		assert.Contains(t, entry.Message, "system database postgres")
	default:
		t.Fatal("expected a warning about the system database")
	}
}
