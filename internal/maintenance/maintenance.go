// Package maintenance provides run-and-exit tools for cleaning the database.
package maintenance

import (
	"github.com/rs/zerolog/log"

	"beacon/internal/config"
	"beacon/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding
// tasks. Returns true if a task was executed, indicating the program should
// exit instead of starting the update loop.
func Run(cfg *config.Config, store *storage.Repository) bool {
	if cfg.Storage.PruneOrphans {
		log.Info().Msg("Pruning orphaned history rows...")

		count, err := store.PruneOrphanSamples()
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune orphaned history")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	if cfg.Storage.TrimHistory > 0 {
		log.Info().Dur("max_age", cfg.Storage.TrimHistory).Msg("Trimming old history samples...")

		count, err := store.TrimSamples(cfg.Storage.TrimHistory)
		if err != nil {
			log.Error().Err(err).Msg("Failed to trim history")
		} else {
			log.Info().Int64("deleted", count).Msg("Trim finished")
		}

		return true
	}

	return false
}
