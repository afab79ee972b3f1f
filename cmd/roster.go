package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List the enrolled identities",
	RunE:  runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	rosterCmd.Flags().String("label", "", "Filter by label (diacritic-insensitive substring)")
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	roster, err := be.store.Roster(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	filter := database.NormalizeLabel(mustGetString(cmd, "label"))

	shown := 0
	for _, entry := range roster {
		if filter != "" && !strings.Contains(database.NormalizeLabel(entry.Label), filter) {
			continue
		}
		shown++
		label := entry.Label
		if label == "" {
			label = "-"
		}
		fmt.Printf("%s  %-25s registered %s\n",
			entry.Identity, label, entry.RegisteredAt.Format(database.DateLayout))
	}

	fmt.Printf("\n%d identities\n", shown)
	return nil
}
