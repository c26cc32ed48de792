package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/database/migrations"
	"github.com/multidelivery/painel/database/seeders"
	"github.com/multidelivery/painel/pkg/database"
	"github.com/multidelivery/painel/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

// painel migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		return migration.New(database.DB, cmd.OutOrStdout()).Run()
	},
}

// painel migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
		return migration.New(database.DB, cmd.OutOrStdout()).Rollback()
	},
}

// painel migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		return migration.New(database.DB, cmd.OutOrStdout()).Status()
	},
}

// painel seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin user, catalog and sample orders",
	Long:  "Runs the seeders in order (" + strings.Join(seeders.Names(), ", ") + "). Each one skips data that is already there.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.Run(cmd.Context(), database.DB, cmd.OutOrStdout(), seedOnly...)
	},
}

// painel db:check
var dbCheckCmd = &cobra.Command{
	Use:   "db:check",
	Short: "Check the connection and count the rows of every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connected (%s)\n\n", config.DatabaseDriver())

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS")
		fmt.Fprintln(w, "-----\t----")
		missing := 0
		for _, table := range migrations.Tables() {
			if !database.DB.Migrator().HasTable(table) {
				fmt.Fprintf(w, "%s\tmissing\n", table)
				missing++
				continue
			}
			var n int64
			if err := database.DB.Table(table).Count(&n).Error; err != nil {
				return fmt.Errorf("count %s: %w", table, err)
			}
			fmt.Fprintf(w, "%s\t%d\n", table, n)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if missing > 0 {
			return fmt.Errorf("%d table(s) missing, run `painel migrate`", missing)
		}
		return nil
	},
}

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

// painel user:admin
var userAdminCmd = &cobra.Command{
	Use:   "user:admin",
	Short: "Create or update an admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		email := adminEmail
		if email == "" {
			email = config.Get("ADMIN_EMAIL", "")
		}
		password := adminPassword
		if password == "" {
			password = config.Get("ADMIN_PASSWORD", "")
		}
		name := adminName
		if name == "" {
			name = config.Get("ADMIN_NAME", "")
		}

		created, err := services.NewAuthService(database.DB).EnsureAdmin(context.Background(), email, name, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Admin %s created\n", email)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Admin %s updated\n", email)
		}
		return nil
	},
}

var seedOnly []string

func init() {
	seedCmd.Flags().StringSliceVar(&seedOnly, "only", nil, "Run only these seeders (comma separated)")
	userAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (default ADMIN_EMAIL)")
	userAdminCmd.Flags().StringVar(&adminName, "name", "", "Display name (default ADMIN_NAME)")
	userAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (default ADMIN_PASSWORD)")
}
