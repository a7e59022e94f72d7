package master

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/fake"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

func TestNewClientOptions(t *testing.T) {
	c := NewClient(config.Query{Timeout: time.Second, BufferSize: 1024, Concurrency: 2}, nil)

	assert.Equal(t, time.Second, c.Timeout)
	assert.Equal(t, 1024, c.BufferSize)
	assert.Equal(t, 2, c.Concurrency)
	assert.NotNil(t, c.OnResult)
}

func TestNewClientForwardsResults(t *testing.T) {
	m, err := fake.ListenMaster("127.0.0.1:0", []masterstat.ServerAddress{{IP: "10.0.0.1", Port: 27500}})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	var (
		mu      sync.Mutex
		results []masterstat.MasterResult
	)
	c := NewClient(config.Query{Timeout: 500 * time.Millisecond, BufferSize: 8192}, func(r masterstat.MasterResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	servers := c.ServerAddressesFromMany([]string{m.Addr(), "no-port-here"})
	assert.Equal(t, []masterstat.ServerAddress{{IP: "10.0.0.1", Port: 27500}}, servers)

	require.Len(t, results, 2)
	for _, r := range results {
		if r.Master == m.Addr() {
			assert.NoError(t, r.Err)
			assert.Equal(t, 1, r.Servers)
		} else {
			assert.Error(t, r.Err)
		}
	}
}
