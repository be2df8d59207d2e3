package migrate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"surfsup-server/internal/db"
)

// ErrNotEmpty is returned when Import targets a database that already holds data.
var ErrNotEmpty = errors.New("dataset already loaded")

const (
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`
)

type ImportStats struct {
	Stations     int
	Measurements int
}

// Import loads the station and measurement CSV files in one transaction.
// Stations go first so the measurement foreign key resolves.
func Import(ctx context.Context, conn *sql.DB, driverName string, stations, measurements io.Reader) (ImportStats, error) {
	var stats ImportStats

	for _, table := range []string{"station", "measurement"} {
		var existing int
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&existing); err != nil {
			return stats, fmt.Errorf("count %s rows: %w", table, err)
		}
		if existing > 0 {
			return stats, fmt.Errorf("%w: %d %s rows present", ErrNotEmpty, existing, table)
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stats.Stations, err = importCSV(ctx, tx, db.Rebind(driverName, insertStationSQL), stations,
		[]string{"station", "name", "latitude", "longitude", "elevation"}, stationArgs)
	if err != nil {
		return stats, fmt.Errorf("import stations: %w", err)
	}

	stats.Measurements, err = importCSV(ctx, tx, db.Rebind(driverName, insertMeasurementSQL), measurements,
		[]string{"station", "date", "prcp", "tobs"}, measurementArgs)
	if err != nil {
		return stats, fmt.Errorf("import measurements: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	slog.Info("dataset imported", "stations", stats.Stations, "measurements", stats.Measurements)
	return stats, nil
}

type rowArgs func(fields []string) ([]any, error)

func importCSV(ctx context.Context, tx *sql.Tx, query string, r io.Reader, columns []string, toArgs rowArgs) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, columns)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close import statement", "error", err)
		}
	}()

	n := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		fields := make([]string, len(idx))
		for i, col := range idx {
			fields[i] = strings.TrimSpace(record[col])
		}
		args, err := toArgs(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, err
		}
		n++
	}
}

// columnIndex maps the wanted columns onto their position in header. Extra
// columns (e.g. an id) are ignored.
func columnIndex(header, want []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := make([]int, len(want))
	for i, w := range want {
		p, ok := pos[w]
		if !ok {
			return nil, fmt.Errorf("missing column %q", w)
		}
		idx[i] = p
	}
	return idx, nil
}

func stationArgs(f []string) ([]any, error) {
	if f[0] == "" {
		return nil, errors.New("empty station id")
	}
	lat, err := nullableFloat(f[2])
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := nullableFloat(f[3])
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	elev, err := nullableFloat(f[4])
	if err != nil {
		return nil, fmt.Errorf("elevation: %w", err)
	}
	return []any{f[0], f[1], lat, lon, elev}, nil
}

func measurementArgs(f []string) ([]any, error) {
	if f[0] == "" {
		return nil, errors.New("empty station id")
	}
	if _, err := time.Parse(time.DateOnly, f[1]); err != nil {
		return nil, fmt.Errorf("date %q: %w", f[1], err)
	}
	prcp, err := nullableFloat(f[2])
	if err != nil {
		return nil, fmt.Errorf("prcp: %w", err)
	}
	tobs, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return nil, fmt.Errorf("tobs: %w", err)
	}
	return []any{f[0], f[1], prcp, tobs}, nil
}

// Empty cells become NULL.
func nullableFloat(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}
