package mysql

import (
	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.MySQL, NewDriver)
	adapter.Register(dbcapabilities.MariaDB, NewMariaDBDriver)
	adapter.RegisterErrorCoder(nativeErrorCode)
}
