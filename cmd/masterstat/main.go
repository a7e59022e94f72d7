// main is the entry point of the Masterstat application.
// Without --serve it queries the masters once and prints the merged server list.
// With --serve it polls the masters, stores results and serves the HTTP API.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/fake"
	"github.com/woozymasta/masterstat/internal/geoip"
	"github.com/woozymasta/masterstat/internal/logger"
	"github.com/woozymasta/masterstat/internal/maintenance"
	"github.com/woozymasta/masterstat/internal/master"
	"github.com/woozymasta/masterstat/internal/poller"
	"github.com/woozymasta/masterstat/internal/server"
	"github.com/woozymasta/masterstat/internal/storage"
)

func main() {
	cfg := config.Parse()

	logCloser := logger.Setup(cfg.Logger)
	defer func() { _ = logCloser.Close() }()

	if cfg.Server.FakeMaster != "" {
		fm, err := fake.ListenMaster(cfg.Server.FakeMaster, fake.Addresses(rand.New(rand.NewSource(time.Now().UnixNano())), 200))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start fake master")
		}
		defer func() { _ = fm.Close() }()

		log.Warn().Str("address", fm.Addr()).Msg("Fake master enabled, configured masters are ignored")
		cfg.Query.Masters = []string{fm.Addr()}
	}

	if !cfg.Server.Serve && cfg.Storage.PruneStale == 0 && cfg.Storage.GenerateCount == 0 {
		oneShot(cfg)
		return
	}

	serve(cfg)
}

// oneShot queries every master once and prints the merged list to stdout.
func oneShot(cfg *config.Config) {
	var geo *geoip.Provider
	if cfg.Output.Country {
		geo = openGeoIP(cfg.GeoIP)
		if geo != nil {
			defer func() { _ = geo.Close() }()
		}
	}

	client := master.NewClient(cfg.Query, nil)
	addrs := client.ServerAddressesFromMany(cfg.Query.Masters)
	if len(addrs) == 0 {
		log.Warn().Strs("masters", cfg.Query.Masters).Msg("No servers received from any master")
	}

	if err := writeServers(os.Stdout, cfg.Output.Format, entries(addrs, geo)); err != nil {
		log.Fatal().Err(err).Msg("Failed to write server list")
	}
}

func serve(cfg *config.Config) {
	log.Info().Msg("Starting masterstat service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if maintenance.Run(cfg, store) {
		return
	}

	geo := openGeoIP(cfg.GeoIP)
	if geo != nil {
		defer func() {
			if err := geo.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	// Background refresh
	poll := poller.New(store, geo, cfg)
	poll.Start()

	srvHandler := server.New(store, cfg)
	srvHandler.StartWorkers()

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Query.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	srvHandler.StopWorkers()
	poll.Stop()

	log.Info().Msg("Server exited")
}

// openGeoIP refreshes and opens the country database.
// It returns nil when the database is unavailable, which disables country detection.
func openGeoIP(cfg config.GeoIP) *geoip.Provider {
	log.Debug().Str("path", cfg.Path).Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	provider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return provider
}
