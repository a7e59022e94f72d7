// Package poller periodically refreshes the stored server list from the configured master servers.
package poller

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/geoip"
	"github.com/woozymasta/masterstat/internal/master"
	"github.com/woozymasta/masterstat/internal/metrics"
	"github.com/woozymasta/masterstat/internal/models"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// Store is the persistence the poller writes to.
type Store interface {
	UpsertServers(servers []models.Server) error
	UpsertMaster(m models.Master) error
	CountServers() (int, error)
}

// Poller runs a fan-out over all masters every interval.
type Poller struct {
	store    Store
	geoip    *geoip.Provider
	client   *masterstat.Client
	shutdown chan struct{}
	masters  []string
	wg       sync.WaitGroup
	interval time.Duration
}

// New creates a Poller. geo may be nil to skip country resolution.
func New(store Store, geo *geoip.Provider, cfg *config.Config) *Poller {
	p := &Poller{
		store:    store,
		geoip:    geo,
		masters:  cfg.Query.Masters,
		interval: cfg.Server.Interval,
		shutdown: make(chan struct{}),
	}
	p.client = master.NewClient(cfg.Query, p.recordMaster)

	metrics.Register(p.masters)

	return p
}

// Start refreshes once right away, then every interval until Stop.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop ends the loop and waits for an in-flight refresh to finish.
func (p *Poller) Stop() {
	close(p.shutdown)
	p.wg.Wait()
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh()
	for {
		select {
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// Refresh queries every master once and stores the merged list.
func (p *Poller) Refresh() []masterstat.ServerAddress {
	start := time.Now()
	addrs := p.client.ServerAddressesFromMany(p.masters)

	seen := time.Now()
	servers := make([]models.Server, 0, len(addrs))
	for _, a := range addrs {
		servers = append(servers, models.NewServer(a, seen))
	}
	p.geoip.Annotate(servers)

	if err := p.store.UpsertServers(servers); err != nil {
		log.Error().Err(err).Msg("Failed to store servers")
	}

	if n, err := p.store.CountServers(); err == nil {
		metrics.SetServersKnown(n)
	}

	event := log.Info()
	if len(addrs) == 0 {
		event = log.Warn()
	}
	event.
		Int("masters", len(p.masters)).
		Int("servers", len(addrs)).
		Dur("duration", time.Since(start)).
		Msg("Server list refreshed")

	return addrs
}

func (p *Poller) recordMaster(r masterstat.MasterResult) {
	now := time.Now()
	m := models.Master{
		Address:    r.Master,
		Servers:    r.Servers,
		DurationMS: r.Duration.Milliseconds(),
		LastQuery:  now,
	}
	if r.Err != nil {
		m.LastError = r.Err.Error()
	} else {
		m.LastSuccess = &now
	}

	if err := p.store.UpsertMaster(m); err != nil {
		log.Error().Err(err).Str("master", r.Master).Msg("Failed to store master status")
	}
}
