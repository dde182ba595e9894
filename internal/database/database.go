// Package database persists airport metadata in SQLite. Airport records are
// effectively static, so keeping them across restarts spares the enrichment
// provider a lookup per airport per process lifetime.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/robasen-whph/TrackMyBird-sub000/internal/flight"

	_ "github.com/mattn/go-sqlite3"
)

// AirportRepository defines the storage operations the enrichment layer needs.
type AirportRepository interface {
	GetAirport(icao string) (*flight.AirportInfo, error)
	UpsertAirport(info *flight.AirportInfo) error
	Close() error
}

// DB implements AirportRepository using SQLite.
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := tuneSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to tune database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// tuneSQLite applies pragmas for concurrent read access from request handlers.
func tuneSQLite(db *sql.DB) error {
	pragmas := []string{
		// WAL lets enrichment writes proceed alongside handler reads.
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates the database schema if it doesn't exist.
func (d *DB) initSchema() error {
	schema := `CREATE TABLE IF NOT EXISTS airports (
		icao TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		city TEXT,
		country TEXT,
		lat REAL,
		lon REAL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create airports table: %w", err)
	}
	return nil
}

// GetAirport returns the stored record for an ICAO code, or nil when the
// airport is unknown.
func (d *DB) GetAirport(icao string) (*flight.AirportInfo, error) {
	row := d.db.QueryRow(
		`SELECT icao, name, city, country, lat, lon FROM airports WHERE icao = ?`, icao)

	var info flight.AirportInfo
	err := row.Scan(&info.ICAO, &info.Name, &info.City, &info.Country, &info.Lat, &info.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query airport %s: %w", icao, err)
	}
	return &info, nil
}

// UpsertAirport inserts or replaces an airport record.
func (d *DB) UpsertAirport(info *flight.AirportInfo) error {
	_, err := d.db.Exec(`INSERT INTO airports (icao, name, city, country, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(icao) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			country = excluded.country,
			lat = excluded.lat,
			lon = excluded.lon,
			updated_at = CURRENT_TIMESTAMP`,
		info.ICAO, info.Name, info.City, info.Country, info.Lat, info.Lon)
	if err != nil {
		return fmt.Errorf("failed to upsert airport %s: %w", info.ICAO, err)
	}
	return nil
}
