package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/facegate/facegate/internal/attendance"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/encoder"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Recognize a face and record an attendance event",
	Long: `Recognize a face from a photo and record an enter or exit event.
The probe is matched against the enrolled faces; on a match the event
is recorded at the current time. With --dry-run the match result is
printed without recording anything.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("image", "", "Path to the probe photo (required)")
	recognizeCmd.Flags().String("direction", "enter", "Event direction: enter or exit")
	recognizeCmd.Flags().Bool("dry-run", false, "Match only, do not record an event")
	recognizeCmd.MarkFlagRequired("image")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	imagePath := mustGetString(cmd, "image")
	dryRun := mustGetBool(cmd, "dry-run")

	direction, err := database.ParseDirection(mustGetString(cmd, "direction"))
	if err != nil {
		return err
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	matcher, err := buildMatcher(ctx, cfg, be.store)
	if err != nil {
		return err
	}

	probes, err := buildEncoder(cfg).Encode(ctx, imageData)
	if errors.Is(err, encoder.ErrNoFaceDetected) {
		return fmt.Errorf("no face detected in %s", imagePath)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	res, err := matcher.Match(ctx, probes[0])
	if err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if !res.Known {
		fmt.Printf("No match (best distance %.4f, threshold %.4f)\n", res.Distance, matcher.Threshold())
		return nil
	}

	fmt.Printf("Matched %s (distance %.4f)\n", res.Identity, res.Distance)
	if dryRun {
		return nil
	}

	recorder := attendance.NewRecorder(be.store, be.log)
	ts := time.Now()
	if err := recorder.Record(ctx, res.Identity, direction, ts); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}

	fmt.Printf("Recorded %s at %s\n", direction, ts.Format(database.DateLayout+" "+database.TimeLayout))
	return nil
}
