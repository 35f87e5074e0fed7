package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove objects of deleted files from storage",
	Long: `Permanently remove the stored objects of deleted files.

Deleting a file through the API removes its share token at once and tries
to delete the object right away. When that storage call fails the object
stays behind. This command processes every deleted file whose object has
not been removed yet. It:
  1. Deletes the object from storage
  2. Marks the file as cleaned up

Run this periodically, for example from cron.`,
	RunE: runCleanup,
}

var cleanupLimit int

func init() {
	cleanupCmd.Flags().IntVar(&cleanupLimit, "limit", 100, "maximum number of files to clean up per batch")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("starting cleanup", "limit", cleanupLimit)

	cleaned, err := a.files.Tombstone(ctx, datashare.ListQuery{Limit: cleanupLimit})
	if err != nil {
		return fmt.Errorf("tombstone: %w", err)
	}

	slog.Info("cleanup complete", "files_cleaned", cleaned)
	return nil
}
