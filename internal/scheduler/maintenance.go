package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/veldtcms/veldt/internal/catalog"
	"github.com/veldtcms/veldt/internal/db"
	"github.com/veldtcms/veldt/internal/engine"
)

const (
	defaultSweepInterval     = time.Minute
	popularityRollupSchedule = "*/10 * * * *"
)

// RegisterMaintenanceJobs wires the theming maintenance tasks: a cache
// sweep that drops expired pipeline results, and a popularity rollup
// that folds adoption counts back into the template catalog.
func RegisterMaintenanceJobs(eng *engine.Engine, adoptions *db.AdoptionStore, cat *catalog.Catalog, sweepEvery time.Duration) error {
	if eng == nil {
		return fmt.Errorf("maintenance jobs require the theme engine")
	}
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepInterval
	}

	sweepLogger := log.With().Str("component", "theme_cache_sweep_job").Logger()
	_, err := AddIntervalJob("theme_cache_sweep", sweepEvery, func() {
		removed := eng.SweepExpired()
		if removed > 0 {
			sweepLogger.Info().Int("removed", removed).Int("remaining", eng.CacheLen()).Msg("Swept expired theme cache entries")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add theme cache sweep job: %w", err)
	}

	if adoptions == nil || cat == nil {
		log.Debug().Msg("Popularity rollup skipped: adoption tracking not configured")
		return nil
	}

	rollupLogger := log.With().Str("component", "template_popularity_job").Logger()
	_, err = AddJob("template_popularity_rollup", popularityRollupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ctx = rollupLogger.WithContext(ctx)

		counts, err := adoptions.AdoptionCounts(ctx)
		if err != nil {
			rollupLogger.Error().Err(err).Msg("Failed to load template adoption counts")
			return
		}
		cat.SetPopularity(counts)
		rollupLogger.Debug().Int("templates", len(counts)).Msg("Template popularity refreshed")
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add template popularity job: %w", err)
	}

	return nil
}
