package fake

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// Master is a UDP master server answering the server list command with a fixed list.
type Master struct {
	listener net.PacketConn
	done     chan struct{}
	requests atomic.Int64

	mu       sync.RWMutex
	response []byte
}

// ListenMaster starts a fake master on addr (e.g. "127.0.0.1:0") announcing servers.
func ListenMaster(addr string, servers []masterstat.ServerAddress) (*Master, error) {
	l, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}

	m := &Master{
		listener: l,
		done:     make(chan struct{}),
		response: masterstat.EncodeServersResponse(servers),
	}
	go m.serve()

	return m, nil
}

// Addr returns the address the master listens on.
func (m *Master) Addr() string {
	return m.listener.LocalAddr().String()
}

// Requests returns the number of datagrams received so far.
func (m *Master) Requests() int64 {
	return m.requests.Load()
}

// SetServers replaces the announced list.
func (m *Master) SetServers(servers []masterstat.ServerAddress) {
	response := masterstat.EncodeServersResponse(servers)

	m.mu.Lock()
	m.response = response
	m.mu.Unlock()
}

// Close stops the master and waits for its loop to exit.
func (m *Master) Close() error {
	err := m.listener.Close()
	<-m.done

	return err
}

func (m *Master) serve() {
	defer close(m.done)

	buffer := make([]byte, 64)
	for {
		n, addr, err := m.listener.ReadFrom(buffer)
		if err != nil {
			return
		}
		m.requests.Add(1)

		if !masterstat.IsServersCommand(buffer[:n]) {
			log.Trace().Str("from", addr.String()).Int("size", n).Msg("Fake master ignored unknown datagram")
			continue
		}

		m.mu.RLock()
		response := m.response
		m.mu.RUnlock()

		if _, err := m.listener.WriteTo(response, addr); err != nil {
			log.Debug().Err(err).Str("to", addr.String()).Msg("Fake master reply failed")
		}
	}
}
