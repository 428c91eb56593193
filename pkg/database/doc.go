// Package database runs record oriented reads and writes on top of an
// adapter.Driver.
//
// Statements are plain SQL text. Every value written by the write family is
// passed through the driver's Escape and rendered as a quoted literal; where
// clauses and the statements given to the read family are used verbatim, with
// the table prefix marker substituted.
//
//	drv, err := adapter.GetDriver("mysql", cfg)
//	if err != nil {
//		return err
//	}
//	defer drv.Disconnect()
//
//	db := database.New(drv)
//	res, err := db.Insert(ctx, "#__users", map[string]interface{}{"name": "ann"})
//
// A DB borrows its driver and, like the driver, is used from one goroutine at
// a time.
package database
