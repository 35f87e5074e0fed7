package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/datashare/config"
	"github.com/sagarc03/datashare/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Long: `Create the users, files and tokens tables if they do not exist and
check that existing tables have the expected columns.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	_, closeDB, err := database.Open(cmd.Context(), cfg.Database, true)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer closeDB()

	slog.Info("database migration complete",
		"type", cfg.Database.Type,
		"users", cfg.Database.Tables.Users,
		"files", cfg.Database.Tables.Files,
		"tokens", cfg.Database.Tables.Tokens,
	)
	return nil
}
