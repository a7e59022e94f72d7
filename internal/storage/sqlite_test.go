package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/masterstat/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "masterstat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masterstat.db")

	repo, err := New(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = New(path)
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	var applied int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	files, err := migrationFiles()
	require.NoError(t, err)
	assert.Equal(t, len(files), applied)
}

func TestUpsertServers(t *testing.T) {
	repo := newTestRepository(t)

	first := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	require.NoError(t, repo.UpsertServers([]models.Server{
		{IP: "10.0.0.2", Port: 27500, CountryCode: "SE", FirstSeen: first, LastSeen: first},
		{IP: "10.0.0.1", Port: 27500, FirstSeen: first, LastSeen: first},
	}))
	require.NoError(t, repo.UpsertServers([]models.Server{
		{IP: "10.0.0.2", Port: 27500, FirstSeen: later, LastSeen: later},
	}))

	servers, err := repo.GetServers()
	require.NoError(t, err)
	require.Len(t, servers, 2)

	assert.Equal(t, "10.0.0.1", servers[0].IP)
	assert.EqualValues(t, 1, servers[0].Count)

	got := servers[1]
	assert.Equal(t, "10.0.0.2", got.IP)
	assert.Equal(t, uint16(27500), got.Port)
	assert.EqualValues(t, 2, got.Count)
	assert.Equal(t, "SE", got.CountryCode, "empty country must not overwrite a known one")
	assert.True(t, got.FirstSeen.Equal(first))
	assert.True(t, got.LastSeen.Equal(later))
}

func TestUpsertServersEmpty(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.UpsertServers(nil))

	n, err := repo.CountServers()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetAndDeleteServer(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()

	require.NoError(t, repo.UpsertServers([]models.Server{{IP: "1.2.3.4", Port: 27500, FirstSeen: now, LastSeen: now}}))

	s, err := repo.GetServer("1.2.3.4", 27500)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "1.2.3.4:27500", s.Address().String())

	missing, err := repo.GetServer("1.2.3.4", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.DeleteServer("1.2.3.4", 27500))
	require.NoError(t, repo.DeleteServer("1.2.3.4", 27500))

	s, err = repo.GetServer("1.2.3.4", 27500)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestDeleteStaleServers(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()

	require.NoError(t, repo.UpsertServers([]models.Server{
		{IP: "1.1.1.1", Port: 1, FirstSeen: now.Add(-72 * time.Hour), LastSeen: now.Add(-48 * time.Hour)},
		{IP: "1.1.1.2", Port: 1, FirstSeen: now.Add(-72 * time.Hour), LastSeen: now.Add(-time.Minute)},
		{IP: "1.1.1.3", Port: 1, FirstSeen: now, LastSeen: now},
	}))

	deleted, err := repo.DeleteStaleServers(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	n, err := repo.CountServers()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertMaster(t *testing.T) {
	repo := newTestRepository(t)

	okAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertMaster(models.Master{
		Address:     "master.quakeworld.nu:27000",
		Servers:     420,
		DurationMS:  35,
		LastQuery:   okAt,
		LastSuccess: &okAt,
	}))

	failAt := okAt.Add(5 * time.Minute)
	require.NoError(t, repo.UpsertMaster(models.Master{
		Address:    "master.quakeworld.nu:27000",
		LastError:  "udp receive master.quakeworld.nu:27000: i/o timeout",
		DurationMS: 2000,
		LastQuery:  failAt,
	}))
	require.NoError(t, repo.UpsertMaster(models.Master{
		Address:   "bad.example:27000",
		LastError: "invalid response",
		LastQuery: failAt,
	}))

	masters, err := repo.GetMasters()
	require.NoError(t, err)
	require.Len(t, masters, 2)

	assert.Equal(t, "bad.example:27000", masters[0].Address)
	assert.Nil(t, masters[0].LastSuccess)
	assert.False(t, masters[0].Online())

	qw := masters[1]
	assert.Zero(t, qw.Servers)
	assert.False(t, qw.Online())
	assert.True(t, qw.LastQuery.Equal(failAt))
	require.NotNil(t, qw.LastSuccess, "failed query must keep the previous success time")
	assert.True(t, qw.LastSuccess.Equal(okAt))
}
