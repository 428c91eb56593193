package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	_ "github.com/redbco/redb-dbaccess/pkg/drivers"
)

var (
	version = "0.1.0"
	// Build information variables
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func printVersionInfo() {
	fmt.Printf("dbaccess v%s\n", version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "dbaccess",
	Short:         "Run statements against MySQL, PostgreSQL, SQLite and SQL Server",
	Long:          "Connect to a database from a connection profile or flags and run queries, single value lookups and statements.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "Show version information and exit")
	setupConnectionFlags(rootCmd)
	setupCommands()
}

func main() {
	Execute()
}
