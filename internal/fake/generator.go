// Package fake provides random server data and a fake master server for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/models"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// Usual QuakeWorld server ports, most common first.
var ports = []uint16{27500, 27501, 27502, 27503, 28000, 28501, 26000}

var countries = []string{"SE", "DE", "PL", "NL", "GB", "FI", "RU", "US", "BR", "FR"}

// Addresses returns count random public-looking server addresses.
// Roughly one in five reuses an earlier IP with another port, as hosts often run several servers.
func Addresses(rnd *rand.Rand, count int) []masterstat.ServerAddress {
	addrs := make([]masterstat.ServerAddress, 0, count)
	for i := 0; i < count; i++ {
		var ip string
		if len(addrs) > 0 && rnd.Float32() < 0.2 {
			ip = addrs[rnd.Intn(len(addrs))].IP
		} else {
			ip = fmt.Sprintf("%d.%d.%d.%d", rnd.Intn(220)+1, rnd.Intn(255), rnd.Intn(255), rnd.Intn(254)+1)
		}

		addrs = append(addrs, masterstat.ServerAddress{IP: ip, Port: ports[rnd.Intn(len(ports))]})
	}

	return addrs
}

// GenerateData populates the storage with count random server records seen over the last 30 days.
func GenerateData(store Store, count int) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	servers := make([]models.Server, 0, count)
	for _, addr := range Addresses(rnd, count) {
		seen := time.Now().Add(-time.Duration(rnd.Intn(30*24*60)) * time.Minute)

		s := models.NewServer(addr, seen)
		s.FirstSeen = seen.Add(-time.Duration(rnd.Intn(7*24)) * time.Hour)
		s.CountryCode = countries[rnd.Intn(len(countries))]
		servers = append(servers, s)
	}

	if err := store.UpsertServers(servers); err != nil {
		log.Warn().Err(err).Msg("Failed to generate fake servers")
		return
	}

	log.Info().Int("count", len(servers)).Msg("Fake servers generated")
}

// Store is the part of the storage GenerateData writes to.
type Store interface {
	UpsertServers(servers []models.Server) error
}
