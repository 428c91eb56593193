// Package adapter provides the driver contract shared by every database backend.
//
// This package defines the interfaces that backend-specific drivers must follow
// and the factory that resolves a driver by name, enabling a consistent way to
// run SQL against any supported backend while respecting its dialect.
//
// # Architecture
//
// The adapter package follows an interface-driven design with several key components:
//
//   - Driver: owns one connection and executes raw statements
//   - Cursor: the pending rows of one executed statement
//   - Row: an ordered column to value mapping
//   - Config: per-driver settings, copied at construction
//   - Registry: maps backend tags to driver constructors
//
// # Usage
//
// Driver variants register a constructor from their init function. Import the
// bundle to make every variant available:
//
//	import (
//	    "github.com/redbco/redb-dbaccess/pkg/adapter"
//	    _ "github.com/redbco/redb-dbaccess/pkg/drivers"
//	)
//
// Then resolve a driver by name:
//
//	drv, err := adapter.GetDriver("mysqli", adapter.Config{
//	    Host:     "127.0.0.1:3306",
//	    User:     "app",
//	    Password: "secret",
//	    Database: "shop",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Disconnect()
//
// Execute a statement and walk the rows:
//
//	cur, err := drv.Execute(ctx, "SELECT id, name FROM users")
//	if err != nil {
//	    return err
//	}
//	defer cur.Free()
//
//	for {
//	    row, ok, err := cur.Fetch()
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Println(row.Value("name"))
//	}
//
// Only one cursor may be open per driver. Executing a new statement releases
// the previous cursor.
//
// # Error Handling
//
// The adapter package provides standardized error types:
//
//   - ConnectionError: the native client is missing or a connect failed
//   - ExecutionError: a statement failed, carries the statement text
//   - UnsupportedAdapterError: no variant matches the requested name
//   - ValidationError: input was rejected before reaching the driver
//   - UnsupportedOperationError: the backend lacks an optional feature
//
// Use the Is() and As() functions from the errors package to check error types:
//
//	if adapter.IsConnectionError(err) {
//	    // Handle connection error
//	}
//
//	var execErr *adapter.ExecutionError
//	if errors.As(err, &execErr) {
//	    log.Printf("failed statement: %s", execErr.Query)
//	}
//
// # Thread Safety
//
// The Registry uses mutex locks to protect concurrent access. Drivers are not
// safe for concurrent use; give every goroutine its own driver.
package adapter
