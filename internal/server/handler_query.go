package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/metrics"
	"github.com/woozymasta/masterstat/pkg/masterstat"
	"github.com/woozymasta/masterstat/pkg/udp"
)

// handleQuery performs a live server list query against one configured master.
// Results are reused for cacheTTL so repeated calls do not hit the master.
// Query params: ?master=master.quakeworld.nu:27000
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("master")
	if addr == "" {
		http.Error(w, "Missing master", http.StatusBadRequest)
		return
	}

	key := xxhash.Sum64String(addr)
	if known, ok := s.allowedMasters[key]; !ok || known != addr {
		log.Debug().
			Str("ip", GetRealIP(r, s.trustProxy)).
			Str("master", addr).
			Msg("Live query for unknown master rejected")

		http.Error(w, "Unknown master", http.StatusForbidden)
		return
	}

	if val, ok := s.queryCache.Load(key); ok {
		if c, ok := val.(cachedQuery); ok && time.Since(c.at) < s.cacheTTL {
			writeJSON(w, http.StatusOK, queryResponse{Master: addr, Servers: c.servers, Cached: true})
			return
		}
	}

	start := time.Now()
	servers, err := s.client.ServerAddresses(addr)
	metrics.ObserveMaster(masterstat.MasterResult{
		Master:   addr,
		Servers:  len(servers),
		Duration: time.Since(start),
		Err:      err,
	})

	if err != nil {
		log.Debug().Err(err).Str("master", addr).Msg("Live query failed")
		writeJSON(w, queryErrorStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if servers == nil {
		servers = []masterstat.ServerAddress{}
	}
	s.queryCache.Store(key, cachedQuery{at: time.Now(), servers: servers})

	writeJSON(w, http.StatusOK, queryResponse{Master: addr, Servers: servers})
}

// queryErrorStatus maps a master query error to the HTTP status reported to the caller.
func queryErrorStatus(err error) int {
	var cerr *udp.ConnectivityError

	switch {
	case errors.As(err, &cerr):
		return http.StatusGatewayTimeout
	case errors.Is(err, masterstat.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
