package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/noaastn/internal/noaa"
)

// Archive stores parsed observation tables in a SQLite database.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the archive database at path.
func Open(path string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	a := &Archive{db: db, logger: logger.With("component", "sqlite-archive")}
	if err := a.initDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) initDB() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS observations (
			station_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			observed_at INTEGER NOT NULL,
			stn TEXT NOT NULL,
			air_temp REAL,
			atm_press REAL,
			wind_spd REAL,
			wind_dir REAL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create observations table: %w", err)
	}

	_, err = a.db.Exec(`CREATE INDEX IF NOT EXISTS idx_station_year ON observations(station_id, year)`)
	if err != nil {
		return fmt.Errorf("failed to create station_year index: %w", err)
	}

	_, err = a.db.Exec(`
		CREATE TABLE IF NOT EXISTS fetches (
			station_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (station_id, year)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fetches table: %w", err)
	}

	return nil
}

// SaveObservations replaces any archived rows of the table's station-year.
func (a *Archive) SaveObservations(ctx context.Context, table *noaa.ObservationTable) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM observations WHERE station_id = ? AND year = ?`,
		table.StationID, table.Year); err != nil {
		return fmt.Errorf("failed to clear observations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations
		(station_id, year, observed_at, stn, air_temp, atm_press, wind_spd, wind_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range table.Rows {
		if _, err := stmt.ExecContext(ctx,
			table.StationID,
			table.Year,
			o.Time.Unix(),
			o.Station,
			nullFloat(o.AirTemp),
			nullFloat(o.AtmPress),
			nullFloat(o.WindSpd),
			nullFloat(o.WindDir),
		); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO fetches (station_id, year, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(station_id, year) DO UPDATE SET fetched_at = excluded.fetched_at`,
		table.StationID, table.Year, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observations: %w", err)
	}

	a.logger.Debug("observations archived",
		"station", table.StationID,
		"year", table.Year,
		"rows", table.Len())
	return nil
}

// LoadObservations returns the archived table of a station-year, or an error wrapping
// noaa.ErrNotFound when it was never archived.
func (a *Archive) LoadObservations(ctx context.Context, stationID string, year int) (*noaa.ObservationTable, error) {
	var fetchedAt int64
	err := a.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM fetches WHERE station_id = ? AND year = ?`,
		stationID, year).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s/%d not archived", noaa.ErrNotFound, stationID, year)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT observed_at, stn, air_temp, atm_press, wind_spd, wind_dir
		FROM observations
		WHERE station_id = ? AND year = ?
		ORDER BY rowid`,
		stationID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	table := &noaa.ObservationTable{StationID: stationID, Year: year}
	for rows.Next() {
		var (
			observedAt                          int64
			obs                                 noaa.Observation
			airTemp, atmPress, windSpd, windDir sql.NullFloat64
		)
		if err := rows.Scan(&observedAt, &obs.Station, &airTemp, &atmPress, &windSpd, &windDir); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Time = time.Unix(observedAt, 0).UTC()
		obs.AirTemp = nullable(airTemp)
		obs.AtmPress = nullable(atmPress)
		obs.WindSpd = nullable(windSpd)
		obs.WindDir = nullable(windDir)
		table.Rows = append(table.Rows, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return table, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
