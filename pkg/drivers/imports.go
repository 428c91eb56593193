// Package drivers registers every built-in database driver variant with the
// global adapter registry. Import it for side effects:
//
//	import _ "github.com/redbco/redb-dbaccess/pkg/drivers"
package drivers

import (
	_ "github.com/redbco/redb-dbaccess/internal/database/mssql"
	_ "github.com/redbco/redb-dbaccess/internal/database/mysql"
	_ "github.com/redbco/redb-dbaccess/internal/database/postgres"
	_ "github.com/redbco/redb-dbaccess/internal/database/sqlite"
)
