// Package dbcapabilities describes the SQL backends the access layer can drive.
// Driver variants, the driver factory and the CLI import it to make decisions
// based on uniform metadata (default ports, identifier quoting, REPLACE support)
// and to parse host strings and connection URLs.
//
// Resolving a legacy adapter name:
//
//	id, ok := dbcapabilities.ParseID("mysqli") // dbcapabilities.MySQL, true
//
// Splitting a host string that may embed a port or a socket path:
//
//	ep := dbcapabilities.ResolveEndpoint("127.0.0.1:3307", 0, "", 3306)
//	// ep.Host == "127.0.0.1", ep.Port == 3307
//
//	ep = dbcapabilities.ResolveEndpoint("localhost:/var/run/mysqld/mysqld.sock", 0, "", 3306)
//	// ep.Socket == "/var/run/mysqld/mysqld.sock", ep.Port == 0
//
// The package exposes constants for IDs (e.g., dbcapabilities.MySQL) and a
// registry `All` for advanced consumers.
package dbcapabilities
