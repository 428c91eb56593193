package adapter_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/adapter/adaptertest"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
	"github.com/redbco/redb-dbaccess/pkg/logger"
)

func TestRegistryGetDriver(t *testing.T) {
	reg := adapter.NewRegistry()
	reg.Register(dbcapabilities.MySQL, adaptertest.Constructor)

	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{"canonical", "mysql", false},
		{"legacy alias", "mysqli", false},
		{"mixed case", "MySQL", false},
		{"stray characters removed", "my$sql!", false},
		{"path traversal rejected", "../mysql", true},
		{"not registered", "postgres", true},
		{"unknown", "oracle", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := adapter.Config{Host: "localhost", Database: "shop"}
			drv, err := reg.GetDriver(tt.driver, cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, adapter.IsUnsupportedAdapter(err))
				assert.Nil(t, drv)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "mysql", drv.Config().Driver)
			assert.Equal(t, "shop", drv.Config().Database)
		})
	}
}

func TestRegistryUnsupportedMessage(t *testing.T) {
	reg := adapter.NewRegistry()
	_, err := reg.GetDriver("ora<cle>", adapter.Config{})

	var unsupported *adapter.UnsupportedAdapterError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "oracle", unsupported.Name)
	assert.Equal(t, "unable to load database driver: oracle", err.Error())
}

func TestRegistryConstructorFailure(t *testing.T) {
	reg := adapter.NewRegistry()
	cause := errors.New("client library missing")
	reg.Register(dbcapabilities.MySQL, func(adapter.Config, adapter.Options) (adapter.Driver, error) {
		return nil, cause
	})

	_, err := reg.GetDriver("mysql", adapter.Config{Host: "db"})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unable to connect to the database")
}

func TestRegistryPassesOptions(t *testing.T) {
	reg := adapter.NewRegistry()
	var got adapter.Options
	reg.Register(dbcapabilities.SQLite, func(cfg adapter.Config, opts adapter.Options) (adapter.Driver, error) {
		got = opts
		return adaptertest.New(cfg), nil
	})

	l := logger.New("test", "0.0.0")
	_, err := reg.GetDriver("sqlite3", adapter.Config{}, adapter.WithLogger(l))
	require.NoError(t, err)
	assert.Same(t, l, got.Logger)
}

func TestRegistryConfigIsCopied(t *testing.T) {
	reg := adapter.NewRegistry()
	reg.Register(dbcapabilities.MySQL, adaptertest.Constructor)

	cfg := adapter.Config{Options: map[string]string{"charset": "utf8mb4"}}
	drv, err := reg.GetDriver("mysql", cfg)
	require.NoError(t, err)

	cfg.Options["charset"] = "latin1"
	assert.Equal(t, "utf8mb4", drv.Config().Options["charset"])
}

func TestRegistryListAndUnregister(t *testing.T) {
	reg := adapter.NewRegistry()
	reg.Register(dbcapabilities.SQLite, adaptertest.Constructor)
	reg.Register(dbcapabilities.MySQL, adaptertest.Constructor)

	assert.Equal(t, []dbcapabilities.DatabaseID{dbcapabilities.MySQL, dbcapabilities.SQLite}, reg.ListRegistered())
	assert.True(t, reg.IsRegistered(dbcapabilities.MySQL))

	reg.Unregister(dbcapabilities.MySQL)
	assert.False(t, reg.IsRegistered(dbcapabilities.MySQL))

	reg.Clear()
	assert.Empty(t, reg.ListRegistered())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "pdomysql", adapter.SanitizeName("pdo mysql"))
	assert.Equal(t, "..mysql", adapter.SanitizeName("../mysql"))
	assert.Equal(t, "my_sql-1.0", adapter.SanitizeName("my_sql-1.0"))
}
