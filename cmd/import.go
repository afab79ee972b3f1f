package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/file"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a file backend data directory into PostgreSQL",
	Long: `Import a file backend data directory into PostgreSQL.
Reads faces.gob, roster.csv and events.csv from the source directory
and copies every enrollment and attendance event into the database
configured by DATABASE_URL. Malformed rows are skipped with a warning,
matching the read behavior of the file backend.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("from", "", "Source data directory (required)")
	importCmd.MarkFlagRequired("from")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	sourceDir := mustGetString(cmd, "from")
	srcStore, err := file.NewStore(sourceDir)
	if err != nil {
		return fmt.Errorf("opening source store: %w", err)
	}
	srcLog, err := file.NewLog(sourceDir)
	if err != nil {
		return fmt.Errorf("opening source log: %w", err)
	}

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	if err := importEnrollments(ctx, srcStore, be); err != nil {
		return err
	}
	return importEvents(ctx, srcLog, be)
}

func importEnrollments(ctx context.Context, src *file.Store, be *backend) error {
	embeddings, err := src.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("reading source embeddings: %w", err)
	}
	roster, err := src.Roster(ctx)
	if err != nil {
		return fmt.Errorf("reading source roster: %w", err)
	}

	entries := make(map[database.Identity]database.RosterEntry, len(roster))
	for _, entry := range roster {
		entries[entry.Identity] = entry
	}

	bar := progressbar.Default(int64(len(embeddings)), "importing enrollments")
	imported := 0
	for _, emb := range embeddings {
		entry, ok := entries[emb.Identity]
		if !ok {
			fmt.Printf("\nWarning: embedding for %s has no roster entry, skipped\n", emb.Identity)
			bar.Add(1)
			continue
		}
		if err := be.store.Enroll(ctx, emb, entry); err != nil {
			return fmt.Errorf("importing %s: %w", emb.Identity, err)
		}
		imported++
		bar.Add(1)
	}

	fmt.Printf("Imported %d of %d enrollments\n", imported, len(embeddings))
	return nil
}

func importEvents(ctx context.Context, src *file.Log, be *backend) error {
	events, malformed, err := src.All(ctx)
	if err != nil {
		return fmt.Errorf("reading source events: %w", err)
	}
	for _, m := range malformed {
		fmt.Printf("Warning: %s\n", m)
	}

	bar := progressbar.Default(int64(len(events)), "importing events")
	for _, event := range events {
		if err := be.log.Record(ctx, event); err != nil {
			return fmt.Errorf("importing event for %s: %w", event.Identity, err)
		}
		bar.Add(1)
	}

	fmt.Printf("Imported %d events\n", len(events))
	return nil
}
