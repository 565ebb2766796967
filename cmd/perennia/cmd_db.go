package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/database/seeders"
	"github.com/perennia/storefront/pkg/cache"
	"github.com/perennia/storefront/pkg/database"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/migration"
)

// bootDB loads config and opens the database. Redis is optional.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	logger.Setup(config.IsProduction())
	if err := database.Connect(); err != nil {
		return err
	}
	if err := cache.Connect(); err != nil {
		logger.Debug("redis unavailable", "error", err)
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		ran, err := migration.New(database.DB, cmd.OutOrStdout()).Run()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(ran))
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		rolled, err := migration.New(database.DB, cmd.OutOrStdout()).Rollback()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) rolled back\n", len(rolled))
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		statuses, err := migration.New(database.DB, cmd.OutOrStdout()).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range statuses {
			batch := "-"
			if s.Ran {
				batch = fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", s.Name, s.Ran, batch)
		}
		return w.Flush()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run the database seeders (catalog and admin user)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		if err := seeders.RunAll(cmd.Context(), database.DB, cmd.OutOrStdout()); err != nil {
			return err
		}
		return cache.Forget(cmd.Context(), "perennia:products:")
	},
}

var adminSetupCmd = &cobra.Command{
	Use:   "admin:setup",
	Short: "Create the admin user from ADMIN_EMAIL and ADMIN_PASSWORD",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		user, err := seeders.SeedAdmin(cmd.Context(), database.DB, config.AdminEmail(), config.AdminPassword())
		if errors.Is(err, seeders.ErrAdminExists) {
			fmt.Fprintln(cmd.OutOrStdout(), "Admin already exists")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin created: %s\n", user.Email)
		return nil
	},
}
