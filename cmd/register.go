package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/encoder"
	"github.com/facegate/facegate/internal/enroll"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new person from a photo",
	Long: `Register a new person from a photo.
The photo is encoded with the configured strategy and stored together
with a generated identity token. Registering a face that is already
enrolled reports the existing identity instead of creating a new one.`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("image", "", "Path to the photo (required)")
	registerCmd.Flags().String("label", "", "Human readable name for the person")
	registerCmd.MarkFlagRequired("image")
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	imagePath := mustGetString(cmd, "image")
	label := mustGetString(cmd, "label")

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
	if len(probes) > 1 {
		fmt.Printf("Warning: %d faces detected, using the first\n", len(probes))
	}

	service := enroll.NewService(be.store, matcher, cfg.Match.Strategy)
	id, err := service.Register(ctx, probes[0], label)
	if errors.Is(err, enroll.ErrDuplicateRegistration) {
		fmt.Printf("Already registered as %s\n", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("registering: %w", err)
	}

	if label != "" {
		fmt.Printf("Registered %s as %s\n", label, id)
	} else {
		fmt.Printf("Registered %s\n", id)
	}
	return nil
}
