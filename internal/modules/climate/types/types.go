package types

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// DateLayout is the storage and URL format of measurement dates.
const DateLayout = "2006-01-02"

// Measurement is one station/date reading from the measurement table.
type Measurement struct {
	Station string   `json:"station"`
	Date    string   `json:"date"`
	Prcp    *float64 `json:"prcp"`
	Tobs    float64  `json:"tobs"`
}

// Station is one row of the station table. Only the identifier is served.
type Station struct {
	ID        string   `json:"station"`
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// PrecipitationEntry keeps a null prcp as null.
type PrecipitationEntry struct {
	Date string   `json:"date"`
	Prcp *float64 `json:"prcp"`
}

// TemperatureStats is the per-date aggregate across all stations reporting
// that date. It is encoded as a [date, min, max, avg] tuple.
type TemperatureStats struct {
	Date string
	Min  float64
	Max  float64
	Avg  float64
}

// MarshalJSON encodes s as [date, min, max, avg].
func (s TemperatureStats) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Date, s.Min, s.Max, s.Avg})
}

// UnmarshalJSON accepts only a four-element [date, min, max, avg] tuple.
func (s *TemperatureStats) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("temperature stats: want 4 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Date); err != nil {
		return fmt.Errorf("temperature stats date: %w", err)
	}
	for i, dst := range []*float64{&s.Min, &s.Max, &s.Avg} {
		if err := json.Unmarshal(raw[i+1], dst); err != nil {
			return errors.Join(fmt.Errorf("temperature stats element %d", i+1), err)
		}
	}
	return nil
}
