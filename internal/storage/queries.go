package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mbtamap/internal/directory"
	"mbtamap/internal/lines"
)

// GetMetadata retrieves a value from the index_metadata table.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM index_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMetadata stores a key-value pair in the index_metadata table.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO index_metadata (key, value) VALUES (?, ?)`,
		key, value)
	return err
}

// LoadDirectory replaces the index contents with the stations of dir.
// Station rows keep their directory index so results map straight back to
// navigation targets.
func (db *DB) LoadDirectory(ctx context.Context, dir *directory.Directory) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM station_lines`, `DELETE FROM stations`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}

	stationStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (station_index, station_id, station_name, station_lat, station_lon,
		                      route_name, address, wheelchair_boarding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station insert: %w", err)
	}
	defer stationStmt.Close()

	lineStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO station_lines (station_index, line_id, line_order) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare line insert: %w", err)
	}
	defer lineStmt.Close()

	for i, s := range dir.Stations {
		if _, err := stationStmt.ExecContext(ctx, i, s.ID, s.Name, s.Position.Lat(), s.Position.Lon(),
			s.RouteName, s.Address, int(s.Wheelchair)); err != nil {
			return fmt.Errorf("insert station %s: %w", s.ID, err)
		}
		for order, line := range s.Lines {
			if _, err := lineStmt.ExecContext(ctx, i, string(line), order); err != nil {
				return fmt.Errorf("insert line %s for %s: %w", line, s.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}

	if err := db.SetMetadata(ctx, "built_at", dir.BuiltAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("set built_at: %w", err)
	}
	if err := db.SetMetadata(ctx, "station_count", strconv.Itoa(dir.Len())); err != nil {
		return fmt.Errorf("set station_count: %w", err)
	}

	db.logger.Info("station index loaded", "stations", dir.Len())
	return nil
}

// StationRow is a station returned by an index query.
type StationRow struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	RouteName string   `json:"route_name"`
	Lines     []string `json:"lines"`
}

// likeEscaper makes LIKE treat typed wildcards as literal characters.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchStations finds stations whose name contains every word of the
// query, case-insensitively. Results are ordered by name.
func (db *DB) SearchStations(ctx context.Context, query string, limit int) ([]StationRow, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	var where []string
	var args []any
	for _, w := range words {
		where = append(where, `LOWER(s.station_name) LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(w))
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, `
		SELECT s.station_index, s.station_id, s.station_name, s.station_lat, s.station_lon,
		       s.route_name, COALESCE(GROUP_CONCAT(l.line_id, ','), '')
		FROM stations s
		LEFT JOIN (SELECT * FROM station_lines ORDER BY station_index, line_order) l
		       ON l.station_index = s.station_index
		WHERE `+strings.Join(where, " AND ")+`
		GROUP BY s.station_index
		ORDER BY s.station_name, s.station_index
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search stations: %w", err)
	}
	defer rows.Close()
	return scanStations(rows)
}

// StationsForLine returns the stations served by line in directory order.
func (db *DB) StationsForLine(ctx context.Context, line lines.ID) ([]StationRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.station_index, s.station_id, s.station_name, s.station_lat, s.station_lon,
		       s.route_name, ?
		FROM stations s
		JOIN station_lines l ON l.station_index = s.station_index
		WHERE l.line_id = ?
		ORDER BY s.station_index`, string(line), string(line))
	if err != nil {
		return nil, fmt.Errorf("stations for line %s: %w", line, err)
	}
	defer rows.Close()
	return scanStations(rows)
}

func scanStations(rows *sql.Rows) ([]StationRow, error) {
	var out []StationRow
	for rows.Next() {
		var r StationRow
		var lineList string
		if err := rows.Scan(&r.Index, &r.ID, &r.Name, &r.Lat, &r.Lon, &r.RouteName, &lineList); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		if lineList != "" {
			r.Lines = strings.Split(lineList, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
