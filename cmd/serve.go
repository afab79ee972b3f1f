package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facegate/facegate/internal/attendance"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/enroll"
	"github.com/facegate/facegate/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Facegate API server.
The server accepts camera uploads for registration and recognition,
records enter/exit events, and serves daily attendance reports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	be, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer be.close()

	if cfg.Database.URL != "" {
		fmt.Println("Using PostgreSQL backend")
	} else {
		fmt.Printf("Using file backend in %s\n", cfg.Storage.DataDir)
	}

	matcher, err := buildMatcher(ctx, cfg, be.store)
	if err != nil {
		return err
	}
	if cfg.Match.HNSW {
		fmt.Printf("Match index built with %d faces (in-memory only)\n", matcher.IndexLen())
	}

	enrollService := enroll.NewService(be.store, matcher, cfg.Match.Strategy)
	recorder := attendance.NewRecorder(be.store, be.log)

	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, web.Deps{
		Store:    be.store,
		Log:      be.log,
		Matcher:  matcher,
		Enroll:   enrollService,
		Recorder: recorder,
		Encoder:  buildEncoder(cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facegate API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
