// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/veldtcms/veldt/internal/api/themes"
	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/config"
	"github.com/veldtcms/veldt/internal/db"
	"github.com/veldtcms/veldt/internal/engine"
	"github.com/veldtcms/veldt/internal/scheduler"
)

const defaultConfigPath = "config/app.yaml"

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	store := db.NewThemeStore(database)
	adoptions := db.NewAdoptionStore(database)

	cat, err := catalog.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load template catalog")
	}
	defaults, err := catalog.PlatformDefaults()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load platform defaults")
	}

	eng, err := engine.New(engine.Config{
		CacheTTL:          cfg.Theme.CacheTTL(),
		PreviewWindow:     cfg.Theme.PreviewWindow(),
		Fallback:          defaults,
		EnforceValidation: cfg.Theme.EnforceValidation,
	}, store, cat, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build theme engine")
	}
	defer eng.Dispose()

	themes.InitHandlers(eng, store, cat, adoptions)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterMaintenanceJobs(eng, adoptions, cat, cfg.Theme.SweepInterval()); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
	}()

	server := newServer(cfg)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
