package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"surfsup-server/internal/db"
	"surfsup-server/internal/modules/climate/types"
)

//go:embed sql/check-schema.sql
var checkSchemaSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-station-tobs.sql
var getStationTobsSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

type ClimateRepository interface {
	// CheckSchema fails unless the measurement and station tables expose the
	// columns the queries below rely on.
	CheckSchema(ctx context.Context) error
	GetPrecipitation(ctx context.Context) ([]types.PrecipitationEntry, error)
	GetStations(ctx context.Context) ([]types.Station, error)
	// GetStationTemperatures returns tobs for stationID on dates strictly after `after`.
	GetStationTemperatures(ctx context.Context, stationID string, after string) ([]float64, error)
	GetTemperatureStats(ctx context.Context, start string) ([]types.TemperatureStats, error)
	GetTemperatureStatsRange(ctx context.Context, start string, end string) ([]types.TemperatureStats, error)
}

type queries struct {
	checkSchema             string
	precipitation           string
	stations                string
	stationTobs             string
	temperatureStats        string
	temperatureStatsInRange string
}

type repositoryImpl struct {
	db *sql.DB
	q  queries
}

func NewRepository(conn *sql.DB, driverName string) ClimateRepository {
	return &repositoryImpl{
		db: conn,
		q: queries{
			checkSchema:             db.Rebind(driverName, checkSchemaSQL),
			precipitation:           db.Rebind(driverName, getPrecipitationSQL),
			stations:                db.Rebind(driverName, getStationsSQL),
			stationTobs:             db.Rebind(driverName, getStationTobsSQL),
			temperatureStats:        db.Rebind(driverName, getTemperatureStatsSQL),
			temperatureStatsInRange: db.Rebind(driverName, getTemperatureStatsRangeSQL),
		},
	}
}

func (r *repositoryImpl) CheckSchema(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, r.q.checkSchema)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	return closeRows(rows, "schema check")
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context) ([]types.PrecipitationEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q.precipitation)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "precipitation")

	out := make([]types.PrecipitationEntry, 0)
	for rows.Next() {
		var (
			e    types.PrecipitationEntry
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&e.Date, &prcp); err != nil {
			return nil, err
		}
		if prcp.Valid {
			v := prcp.Float64
			e.Prcp = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.db.QueryContext(ctx, r.q.stations)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "stations")

	out := make([]types.Station, 0)
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStationTemperatures(ctx context.Context, stationID string, after string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, r.q.stationTobs, stationID, after)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "station tobs")

	out := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, start string) ([]types.TemperatureStats, error) {
	rows, err := r.db.QueryContext(ctx, r.q.temperatureStats, start)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "temperature stats")
	return scanTemperatureStats(rows)
}

func (r *repositoryImpl) GetTemperatureStatsRange(ctx context.Context, start string, end string) ([]types.TemperatureStats, error) {
	rows, err := r.db.QueryContext(ctx, r.q.temperatureStatsInRange, start, end)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "temperature stats range")
	return scanTemperatureStats(rows)
}

func scanTemperatureStats(rows *sql.Rows) ([]types.TemperatureStats, error) {
	out := make([]types.TemperatureStats, 0)
	for rows.Next() {
		var s types.TemperatureStats
		if err := rows.Scan(&s.Date, &s.Min, &s.Max, &s.Avg); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func closeRows(rows *sql.Rows, what string) error {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
		return err
	}
	return nil
}
