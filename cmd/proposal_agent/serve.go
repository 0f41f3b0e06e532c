package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/db"
	"github.com/jonathan/proposal-builder/internal/server"
	"github.com/jonathan/proposal-builder/internal/server/ratelimit"
)

var (
	servePort    int
	serveProfile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server for uploading RFPs, generating proposals in the background
and downloading them.

Environment: PORT, UPLOAD_DIR, OUTPUT_DIR, DATABASE_URL (optional, run status is kept
in memory without it), JWT_SECRET (optional, enables bearer authentication),
REDIS_ADDR (optional response cache) and RATE_LIMIT_*.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (defaults to PORT)")
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "Company profile YAML")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	port := servePort
	if !cmd.Flags().Changed("port") {
		if v := os.Getenv("PORT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid PORT: %w", err)
			}
			port = p
		}
	}

	cfg := config.Config{Profile: serveProfile}
	cfg = cfg.MergeWithDefaults(envDefaults())
	logger := newLogger(false)

	jwtCfg, err := config.LoadJWTConfig()
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		logger.Warn().Msg("JWT_SECRET not set, API is unauthenticated")
	}

	var store db.RunStore
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		store = database
	} else {
		logger.Warn().Msg("DATABASE_URL not set, run status is kept in memory")
		store = db.NewMemoryStore()
	}

	client, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	orchestrator, err := newOrchestrator(cfg, client, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:      port,
		UploadDir: envOr("UPLOAD_DIR", "uploads"),
		OutputDir: envOr("OUTPUT_DIR", "outputs"),
		JWT:       jwtCfg,
		RateLimit: ratelimit.LoadConfig(),
	}, orchestrator, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
