package storage

import "fmt"

// migrate creates the station index schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrations applied")
	return nil
}

var migrations = []string{
	// Stations, keyed by their position in the directory
	`CREATE TABLE IF NOT EXISTS stations (
		station_index       INTEGER PRIMARY KEY,
		station_id          TEXT UNIQUE NOT NULL,
		station_name        TEXT NOT NULL,
		station_lat         REAL NOT NULL,
		station_lon         REAL NOT NULL,
		route_name          TEXT NOT NULL DEFAULT '',
		address             TEXT NOT NULL DEFAULT '',
		wheelchair_boarding INTEGER NOT NULL DEFAULT 0
	)`,

	// Lines serving each station, in the order they were merged
	`CREATE TABLE IF NOT EXISTS station_lines (
		station_index INTEGER NOT NULL REFERENCES stations(station_index),
		line_id       TEXT NOT NULL,
		line_order    INTEGER NOT NULL,
		PRIMARY KEY (station_index, line_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_station_lines_line ON station_lines(line_id, station_index)`,
	`CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(station_name COLLATE NOCASE)`,

	// Index metadata (built_at, station count)
	`CREATE TABLE IF NOT EXISTS index_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}
