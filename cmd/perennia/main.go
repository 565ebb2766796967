// Command perennia runs and administers the storefront backend.
//
//	perennia serve
//	perennia migrate
//	perennia seed
//	perennia admin:setup
//	perennia route:list
//	perennia queue:failed
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/perennia/storefront/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "perennia",
	Short:         "Perennia storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(adminSetupCmd)

	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
