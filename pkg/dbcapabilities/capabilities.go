package dbcapabilities

import (
	"sort"
	"strings"
)

// DatabaseID is the canonical identifier for a database backend family.
// Driver variants register themselves under these tags.
type DatabaseID string

const (
	MySQL       DatabaseID = "mysql"
	MariaDB     DatabaseID = "mariadb"
	PostgreSQL  DatabaseID = "postgres"
	CockroachDB DatabaseID = "cockroach"
	SQLite      DatabaseID = "sqlite"
	SQLServer   DatabaseID = "mssql"
)

// NameQuote describes how a backend quotes identifiers.
type NameQuote struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Capability describes what a backend supports so that drivers and the executor
// can make uniform decisions without switching on the backend type.
type Capability struct {
	// Human-friendly product name, e.g., "MySQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants).
	ID DatabaseID `json:"id"`

	// Name of the database/sql driver the variant opens connections with.
	SQLDriver string `json:"sqlDriver"`

	// Default TCP port, zero when the backend is file based.
	DefaultPort int `json:"defaultPort"`

	// Built-in databases that exist on every server.
	SystemDatabases []string `json:"systemDatabases,omitempty"`

	// Identifier quoting characters.
	Quote NameQuote `json:"quote"`

	// REPLACE INTO support (MySQL family and SQLite).
	SupportsReplace bool `json:"supportsReplace"`

	// Session scoped sql_mode support.
	SupportsSQLModes bool `json:"supportsSqlModes"`

	// LOCK TABLES / UNLOCK TABLES support.
	SupportsTableLocks bool `json:"supportsTableLocks"`

	// Multi-table UPDATE a, b SET ... support.
	SupportsMultiTableUpdate bool `json:"supportsMultiTableUpdate"`

	// Common aliases (legacy adapter names, driver names, URL schemes).
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	MySQL: {
		Name:                     "MySQL",
		ID:                       MySQL,
		SQLDriver:                "mysql",
		DefaultPort:              3306,
		SystemDatabases:          []string{"mysql", "information_schema", "performance_schema", "sys"},
		Quote:                    NameQuote{Open: "`", Close: "`"},
		SupportsReplace:          true,
		SupportsSQLModes:         true,
		SupportsTableLocks:       true,
		SupportsMultiTableUpdate: true,
		Aliases:                  []string{"mysqli", "aurora-mysql", "pdomysql"},
	},
	MariaDB: {
		Name:                     "MariaDB",
		ID:                       MariaDB,
		SQLDriver:                "mysql",
		DefaultPort:              3306,
		SystemDatabases:          []string{"mysql", "information_schema", "performance_schema"},
		Quote:                    NameQuote{Open: "`", Close: "`"},
		SupportsReplace:          true,
		SupportsSQLModes:         true,
		SupportsTableLocks:       true,
		SupportsMultiTableUpdate: true,
		Aliases:                  []string{"maria"},
	},
	PostgreSQL: {
		Name:            "PostgreSQL",
		ID:              PostgreSQL,
		SQLDriver:       "pgx",
		DefaultPort:     5432,
		SystemDatabases: []string{"postgres"},
		Quote:           NameQuote{Open: `"`, Close: `"`},
		Aliases:         []string{"postgresql", "pgsql", "pgx", "pdopgsql"},
	},
	CockroachDB: {
		Name:            "CockroachDB",
		ID:              CockroachDB,
		SQLDriver:       "pgx",
		DefaultPort:     26257,
		SystemDatabases: []string{"system"},
		Quote:           NameQuote{Open: `"`, Close: `"`},
		Aliases:         []string{"cockroachdb", "crdb"},
	},
	SQLite: {
		Name:            "SQLite",
		ID:              SQLite,
		SQLDriver:       "sqlite3",
		Quote:           NameQuote{Open: `"`, Close: `"`},
		SupportsReplace: true,
		Aliases:         []string{"sqlite3", "pdosqlite"},
	},
	SQLServer: {
		Name:            "Microsoft SQL Server",
		ID:              SQLServer,
		SQLDriver:       "sqlserver",
		DefaultPort:     1433,
		SystemDatabases: []string{"master", "model", "msdb", "tempdb"},
		Quote:           NameQuote{Open: "[", Close: "]"},
		Aliases:         []string{"sqlserver", "sqlsrv", "azure-sql"},
	},
}

// nameToID maps lowercased IDs and aliases to canonical IDs.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*3)
	for id, c := range All {
		nameToID[strings.ToLower(string(id))] = id
		for _, a := range c.Aliases {
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID converts a free-form name (id or alias) into a canonical DatabaseID.
func ParseID(name string) (DatabaseID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// IDs returns the list of all known database IDs in lexical order.
func IDs() []DatabaseID {
	out := make([]DatabaseID, 0, len(All))
	for id := range All {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns capabilities for the given ID and a boolean indicating existence.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns capabilities for the given ID and panics if not found.
func MustGet(id DatabaseID) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// IsSystemDatabase reports whether name is one of the backend's built-in databases.
func IsSystemDatabase(id DatabaseID, name string) bool {
	c, ok := Get(id)
	if !ok {
		return false
	}
	return isSystemDatabase(name, c.SystemDatabases)
}

// IsMySQLFamily reports whether the backend speaks the MySQL dialect.
func IsMySQLFamily(id DatabaseID) bool {
	return id == MySQL || id == MariaDB
}

// IsPostgresFamily reports whether the backend speaks the PostgreSQL wire protocol.
func IsPostgresFamily(id DatabaseID) bool {
	return id == PostgreSQL || id == CockroachDB
}
