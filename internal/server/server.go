// Package server implements the HTTP API, middleware, and request handlers for the service mode.
package server

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/master"
)

// New creates a new Server instance with the provided storage and configuration.
func New(store Store, cfg *config.Config) *Server {
	allowed := make(map[uint64]string, len(cfg.Query.Masters))
	for _, m := range cfg.Query.Masters {
		allowed[xxhash.Sum64String(m)] = m
	}

	return &Server{
		storage:        store,
		client:         master.NewClient(cfg.Query, nil),
		allowedMasters: allowed,
		authToken:      cfg.Server.AuthToken,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		cacheTTL:       cfg.RateLimit.CacheTTL,
		trustProxy:     cfg.Server.TrustProxy,
		limiters:       make(map[string]*clientLimiter),
		shutdown:       make(chan struct{}),
	}
}

// StartWorkers starts the cache and rate limiter cleanup routine.
func (s *Server) StartWorkers() {
	s.wg.Add(1)
	go s.gc()
}

// StopWorkers stops background routines and waits for them.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/servers", http.HandlerFunc(s.handleServers))
	mux.Handle("GET /api/server", http.HandlerFunc(s.handleGetServer))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))
	mux.Handle("GET /api/masters", http.HandlerFunc(s.handleMasters))
	mux.Handle("GET /api/query", s.RateLimitMiddleware(http.HandlerFunc(s.handleQuery)))
	mux.Handle("GET /api/version", http.HandlerFunc(handleVersion))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /healthz", http.HandlerFunc(handleHealth))

	return s.LoggingMiddleware(mux)
}

// gc periodically drops expired live query results and idle client limiters.
func (s *Server) gc() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Server) sweep(now time.Time) {
	s.queryCache.Range(func(key, value any) bool {
		if c, ok := value.(cachedQuery); !ok || now.Sub(c.at) > s.cacheTTL {
			s.queryCache.Delete(key)
		}
		return true
	})

	s.limitersMu.Lock()
	for ip, c := range s.limiters {
		if now.Sub(c.lastSeen) > 2*s.hardLimitWin {
			delete(s.limiters, ip)
		}
	}
	s.limitersMu.Unlock()
}
