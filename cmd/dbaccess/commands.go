package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redbco/redb-dbaccess/pkg/adapter"
	"github.com/redbco/redb-dbaccess/pkg/database"
)

var (
	keyField    string
	valueColumn string
)

// setupCommands initializes all commands and their relationships
func setupCommands() {
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)

	queryCmd.Flags().StringVar(&keyField, "key", "", "Key the result rows by this column")
	rootCmd.AddCommand(queryCmd)

	valueCmd.Flags().StringVar(&valueColumn, "column", "", "Column to return (default: first column)")
	rootCmd.AddCommand(valueCmd)

	rootCmd.AddCommand(execCmd)

	passwordCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(passwordCmd)
}

// driversCmd lists the registered driver tags
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List available database drivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range adapter.ListRegistered() {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

// pingCmd connects and checks the connection
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB()
		if err != nil {
			return err
		}
		drv := db.Driver()
		defer drv.Disconnect()

		if err := drv.Connect(ctx); err != nil {
			return err
		}
		if !drv.Connected(ctx) {
			return fmt.Errorf("%s did not answer the ping", drv.Type())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Connected to %s\n", drv.Type())
		return nil
	},
}

// versionCmd prints the server version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the database server version",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Driver().Disconnect()

		v, err := db.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

// queryCmd prints the result rows as JSON
var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a query and print the rows as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Driver().Disconnect()

		var result interface{}
		if keyField != "" {
			result, err = db.SelectRowsKeyed(cmd.Context(), args[0], keyField)
		} else {
			result, err = db.SelectRows(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// valueCmd prints a single value
var valueCmd = &cobra.Command{
	Use:   "value [sql]",
	Short: "Run a query and print one value of the first row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Driver().Disconnect()

		v, err := db.SelectValue(cmd.Context(), args[0], valueColumn)
		if err != nil {
			return err
		}
		if v == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "NULL")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

// execCmd runs a statement that returns no rows
var execCmd = &cobra.Command{
	Use:   "exec [sql]",
	Short: "Run a statement and print the insert id and affected rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Driver().Disconnect()

		res, err := db.Exec(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Insert ID:     %d\n", res.InsertID)
		fmt.Fprintf(cmd.OutOrStdout(), "Affected rows: %d\n", res.RowsAffected)
		return nil
	},
}

// passwordCmd groups keyring commands
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage connection passwords in the keyring",
}

// setPasswordCmd stores a password under the connection's keyring service
var setPasswordCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the connection password in the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConnection(false)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Password for %s: ", cfg.UserOrDefault())
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %v", err)
		}

		if err := database.StorePassword(cfg, nil, string(passwordBytes)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Password stored in keyring service %s\n", cfg.KeyringService)
		return nil
	},
}
