package postgres

import (
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

func init() {
	// Register PostgreSQL and CockroachDB with the global registry
	adapter.Register(dbcapabilities.PostgreSQL, NewDriver)
	adapter.Register(dbcapabilities.CockroachDB, NewCockroachDriver)
	adapter.RegisterErrorCoder(nativeErrorCode)
}
