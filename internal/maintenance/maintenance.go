// Package maintenance provide tools for clean and seed database
package maintenance

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/fake"
)

// Store is the storage surface used by maintenance tasks.
type Store interface {
	fake.Store
	DeleteStaleServers(olderThan time.Time) (int64, error)
	CountServers() (int, error)
}

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store Store) bool {
	switch {
	case cfg.Storage.GenerateCount > 0:
		fake.GenerateData(store, cfg.Storage.GenerateCount)
	case cfg.Storage.PruneStale > 0:
		pruneStale(store, cfg.Storage.PruneStale, time.Now())
	default:
		return false
	}

	if total, err := store.CountServers(); err == nil {
		log.Info().Int("servers", total).Msg("Maintenance task completed")
	}

	return true
}

// pruneStale deletes servers whose last sighting is older than now minus maxAge.
func pruneStale(store Store, maxAge time.Duration, now time.Time) {
	cutoff := now.Add(-maxAge)
	log.Info().Time("cutoff", cutoff).Msg("Pruning stale servers...")

	count, err := store.DeleteStaleServers(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune servers")
		return
	}

	log.Info().Int64("deleted", count).Msg("Prune finished")
}
