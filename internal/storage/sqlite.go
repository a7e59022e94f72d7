// Package storage persists discovered game servers and master server status in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/woozymasta/masterstat/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New opens the database at dbPath, sets pool parameters and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

const serverColumns = `ip, port, country_code, count, first_seen, last_seen`

// UpsertServers records a batch of sightings in one transaction.
// Known servers get their counter and last_seen bumped; the country is only replaced by a non-empty value.
func (r *Repository) UpsertServers(servers []models.Server) error {
	if len(servers) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT INTO servers (` + serverColumns + `)
	VALUES (?, ?, ?, 1, ?, ?)
	ON CONFLICT(ip, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END;
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range servers {
		if _, err := stmt.Exec(s.IP, s.Port, s.CountryCode, s.FirstSeen.UTC(), s.LastSeen.UTC()); err != nil {
			return fmt.Errorf("upsert server %s: %w", s.Address(), err)
		}
	}

	return tx.Commit()
}

// GetServers returns all stored servers ordered by address.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY ip, port`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.IP, &s.Port, &s.CountryCode, &s.Count, &s.FirstSeen, &s.LastSeen); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer returns one server, or nil when it is not stored.
func (r *Repository) GetServer(ip string, port uint16) (*models.Server, error) {
	row := r.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE ip = ? AND port = ?`, ip, port)

	var s models.Server
	err := row.Scan(&s.IP, &s.Port, &s.CountryCode, &s.Count, &s.FirstSeen, &s.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// CountServers returns the number of stored servers.
func (r *Repository) CountServers() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM servers`).Scan(&n)
	return n, err
}

// DeleteServer removes one server. Deleting an unknown server is not an error.
func (r *Repository) DeleteServer(ip string, port uint16) error {
	_, err := r.db.Exec(`DELETE FROM servers WHERE ip = ? AND port = ?`, ip, port)
	return err
}

// DeleteStaleServers removes servers last seen before olderThan and returns how many were deleted.
func (r *Repository) DeleteStaleServers(olderThan time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE last_seen < ?`, olderThan.UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// UpsertMaster stores the latest query outcome of a master server.
// last_success keeps its previous value when the query failed.
func (r *Repository) UpsertMaster(m models.Master) error {
	var lastSuccess sql.NullTime
	if m.LastSuccess != nil {
		lastSuccess = sql.NullTime{Time: m.LastSuccess.UTC(), Valid: true}
	}

	_, err := r.db.Exec(`
	INSERT INTO masters (address, servers, last_error, duration_ms, last_query, last_success)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		servers = excluded.servers,
		last_error = excluded.last_error,
		duration_ms = excluded.duration_ms,
		last_query = excluded.last_query,
		last_success = COALESCE(excluded.last_success, masters.last_success);
	`, m.Address, m.Servers, m.LastError, m.DurationMS, m.LastQuery.UTC(), lastSuccess)

	return err
}

// GetMasters returns the status of every master ever queried, ordered by address.
func (r *Repository) GetMasters() ([]models.Master, error) {
	rows, err := r.db.Query(`
		SELECT address, servers, last_error, duration_ms, last_query, last_success
		FROM masters
		ORDER BY address
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var masters []models.Master
	for rows.Next() {
		var (
			m           models.Master
			lastSuccess sql.NullTime
		)
		if err := rows.Scan(&m.Address, &m.Servers, &m.LastError, &m.DurationMS, &m.LastQuery, &lastSuccess); err != nil {
			return nil, err
		}
		if lastSuccess.Valid {
			t := lastSuccess.Time
			m.LastSuccess = &t
		}
		masters = append(masters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return masters, nil
}
