// Package master builds configured master server clients and records their outcomes.
package master

import (
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/metrics"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// NewClient returns a masterstat client configured from options.
// Every per-master outcome is logged and counted in metrics before being passed to onResult.
func NewClient(options config.Query, onResult func(masterstat.MasterResult)) *masterstat.Client {
	return &masterstat.Client{
		Timeout:     options.Timeout,
		BufferSize:  options.BufferSize,
		Concurrency: options.Concurrency,
		OnResult: func(r masterstat.MasterResult) {
			logResult(r)
			metrics.ObserveMaster(r)
			if onResult != nil {
				onResult(r)
			}
		},
	}
}

func logResult(r masterstat.MasterResult) {
	if r.Err != nil {
		log.Warn().
			Err(r.Err).
			Str("master", r.Master).
			Str("result", metrics.Classify(r.Err)).
			Dur("duration", r.Duration).
			Msg("Master query failed")
		return
	}

	log.Debug().
		Str("master", r.Master).
		Int("servers", r.Servers).
		Dur("duration", r.Duration).
		Msg("Master answered")
}
