package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/timeline"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the attendance report for a day",
	Long: `Compute the attendance report for a day.
The report lists absent employees, late arrivals and early departures
against the analysis window. The window defaults to the configured
workday and can be overridden per invocation.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("date", "", "Day to analyze, YYYY-MM-DD (default today)")
	analyzeCmd.Flags().String("start", "", "Window start, HH:MM (default from config)")
	analyzeCmd.Flags().String("end", "", "Window end, HH:MM (default from config)")
	analyzeCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(database.DateLayout)
	}
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	start := mustGetString(cmd, "start")
	if start == "" {
		start = cfg.Workday.Start
	}
	end := mustGetString(cmd, "end")
	if end == "" {
		end = cfg.Workday.End
	}
	window, err := timeline.ParseWindow(start, end)
	if err != nil {
		return err
	}

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	roster, err := be.store.Roster(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	events, malformed, err := be.log.EventsFor(ctx, date)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}

	report, err := timeline.Analyze(roster, events, malformed, date, window)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report, window)
	return nil
}

func printReport(report *timeline.Report, window timeline.Window) {
	fmt.Printf("Attendance report for %s (%s - %s)\n", report.Date, window.Start, window.End)

	fmt.Printf("\nAbsent (%d):\n", len(report.Absentees))
	for _, id := range report.Absentees {
		fmt.Printf("  %s\n", id)
	}

	fmt.Printf("\nLate arrivals (%d):\n", len(report.LateArrivals))
	for _, late := range report.LateArrivals {
		fmt.Printf("  %s by %d min\n", late.Identity, late.Minutes)
	}

	fmt.Printf("\nEarly departures (%d):\n", len(report.EarlyDepartures))
	for _, early := range report.EarlyDepartures {
		fmt.Printf("  %s by %d min\n", early.Identity, early.Minutes)
	}

	for _, warning := range report.Warnings {
		fmt.Printf("\nWarning: %s\n", warning)
	}
}
