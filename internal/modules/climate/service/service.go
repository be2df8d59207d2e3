package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
)

const (
	// DefaultCutoffDate is the exclusive lower bound of the /tobs window.
	DefaultCutoffDate = "2016-08-23"
	// DefaultStationID is the station whose observations /tobs serves.
	DefaultStationID = "USC00519281"

	FirstDataDate = "2010-01-01"
	LastDataDate  = "2017-08-23"
)

type Service struct {
	repository repository.ClimateRepository
	cutoffDate string
	stationID  string
}

type Option func(*Service)

func WithCutoffDate(date string) Option {
	return func(s *Service) { s.cutoffDate = date }
}

func WithStationID(id string) Option {
	return func(s *Service) { s.stationID = id }
}

func NewService(repository repository.ClimateRepository, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		cutoffDate: DefaultCutoffDate,
		stationID:  DefaultStationID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckSchema is run once at startup; serving against a database without the
// expected tables would turn every request into a 500.
func (s *Service) CheckSchema(ctx context.Context) error {
	return s.repository.CheckSchema(ctx)
}

// RenderIndex writes the route documentation page. It does not touch the
// data source.
func (s *Service) RenderIndex(w io.Writer) error {
	return views.RenderIndex(w, &views.IndexData{
		Routes:        indexRoutes,
		DateFormat:    "yyyy-mm-dd",
		FirstDataDate: FirstDataDate,
		LastDataDate:  LastDataDate,
		StationID:     s.stationID,
		CutoffDate:    s.cutoffDate,
	})
}

var indexRoutes = []views.Route{
	{Path: "/api/v1.0/precipitation", Description: "Every measurement as {date, prcp}; prcp is null where it was not recorded."},
	{Path: "/api/v1.0/stations", Description: "All station identifiers."},
	{Path: "/api/v1.0/tobs", Description: "Temperature observations of the most active station for the last year of data."},
	{Path: "/api/v1.0/<start>", Description: "Per-date [date, min, max, avg] temperatures for dates on or after start."},
	{Path: "/api/v1.0/<start>/<end>", Description: "Per-date [date, min, max, avg] temperatures for dates between start and end inclusive."},
}

func (s *Service) GetPrecipitation(ctx context.Context) ([]types.PrecipitationEntry, error) {
	entries, err := s.repository.GetPrecipitation(ctx)
	if err != nil {
		return nil, fmt.Errorf("get precipitation: %w", err)
	}
	return entries, nil
}

func (s *Service) GetStations(ctx context.Context) ([]string, error) {
	stations, err := s.repository.GetStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stations: %w", err)
	}
	ids := make([]string, 0, len(stations))
	for _, st := range stations {
		ids = append(ids, st.ID)
	}
	return ids, nil
}

func (s *Service) GetTemperatureObservations(ctx context.Context) ([]float64, error) {
	tobs, err := s.repository.GetStationTemperatures(ctx, s.stationID, s.cutoffDate)
	if err != nil {
		return nil, fmt.Errorf("get temperature observations for %s: %w", s.stationID, err)
	}
	return tobs, nil
}

func (s *Service) GetTemperatureStats(ctx context.Context, start string) ([]types.TemperatureStats, error) {
	stats, err := s.repository.GetTemperatureStats(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("get temperature stats from %s: %w", start, err)
	}
	sortByDate(stats)
	return stats, nil
}

// GetTemperatureStatsRange returns an empty result, not an error, when end
// precedes start.
func (s *Service) GetTemperatureStatsRange(ctx context.Context, start, end string) ([]types.TemperatureStats, error) {
	if end < start {
		return []types.TemperatureStats{}, nil
	}
	stats, err := s.repository.GetTemperatureStatsRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("get temperature stats %s..%s: %w", start, end, err)
	}
	sortByDate(stats)
	return stats, nil
}

// Dates are zero-padded yyyy-mm-dd, so lexical order is chronological.
func sortByDate(stats []types.TemperatureStats) {
	slices.SortStableFunc(stats, func(a, b types.TemperatureStats) int {
		return strings.Compare(a.Date, b.Date)
	})
}
