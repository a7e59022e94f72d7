// Package models defines the data structures used for API responses and database persistence.
package models

import (
	"time"

	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// Server is a game server discovered through one or more master servers.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IP          string    `json:"ip"`
	CountryCode string    `json:"country_code,omitempty"`
	Count       int64     `json:"count"`
	Port        uint16    `json:"port"`
}

// NewServer builds a Server seen at the given time from a discovered address.
func NewServer(addr masterstat.ServerAddress, seen time.Time) Server {
	return Server{
		IP:        addr.IP,
		Port:      addr.Port,
		FirstSeen: seen,
		LastSeen:  seen,
	}
}

// Address returns the server endpoint.
func (s Server) Address() masterstat.ServerAddress {
	return masterstat.ServerAddress{IP: s.IP, Port: s.Port}
}

// Master is the last known state of a master server.
type Master struct {
	LastQuery   time.Time  `json:"last_query"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	Address     string     `json:"address"`
	LastError   string     `json:"last_error,omitempty"`
	Servers     int        `json:"servers"`
	DurationMS  int64      `json:"duration_ms"`
}

// Online reports whether the last query of the master succeeded.
func (m Master) Online() bool {
	return m.LastError == ""
}
