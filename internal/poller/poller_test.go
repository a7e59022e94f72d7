package poller

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/fake"
	"github.com/woozymasta/masterstat/internal/storage"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

func newTestConfig(masters ...string) *config.Config {
	return &config.Config{
		Query: config.Query{
			Masters:    masters,
			Timeout:    200 * time.Millisecond,
			BufferSize: 8192,
		},
		Server: config.Server{Interval: time.Hour},
	}
}

func newTestStore(t *testing.T) *storage.Repository {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "poller.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newFakeMaster(t *testing.T, servers []masterstat.ServerAddress) *fake.Master {
	t.Helper()

	m, err := fake.ListenMaster("127.0.0.1:0", servers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestRefreshStoresServersAndMasters(t *testing.T) {
	shared := masterstat.ServerAddress{IP: "10.0.0.1", Port: 27500}
	first := newFakeMaster(t, []masterstat.ServerAddress{shared, {IP: "10.0.0.2", Port: 27500}})
	second := newFakeMaster(t, []masterstat.ServerAddress{shared})
	const broken = "missing-port"

	store := newTestStore(t)
	p := New(store, nil, newTestConfig(first.Addr(), second.Addr(), broken))

	addrs := p.Refresh()
	assert.Equal(t, []masterstat.ServerAddress{shared, {IP: "10.0.0.2", Port: 27500}}, addrs)

	servers, err := store.GetServers()
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.EqualValues(t, 1, servers[0].Count)

	masters, err := store.GetMasters()
	require.NoError(t, err)
	require.Len(t, masters, 3)

	byAddr := make(map[string]bool)
	for _, m := range masters {
		byAddr[m.Address] = m.Online()
	}
	assert.True(t, byAddr[first.Addr()])
	assert.True(t, byAddr[second.Addr()])
	assert.False(t, byAddr[broken])

	p.Refresh()
	servers, err = store.GetServers()
	require.NoError(t, err)
	assert.EqualValues(t, 2, servers[0].Count)
}

func TestStartStop(t *testing.T) {
	m := newFakeMaster(t, []masterstat.ServerAddress{{IP: "10.9.9.9", Port: 27500}})
	store := newTestStore(t)

	p := New(store, nil, newTestConfig(m.Addr()))
	p.Start()

	require.Eventually(t, func() bool {
		n, err := store.CountServers()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	assert.EqualValues(t, 1, m.Requests())
}
