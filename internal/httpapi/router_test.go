package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/matryer/is"
	_ "github.com/mattn/go-sqlite3"

	"surfsup-server/internal/config"
	"surfsup-server/internal/httpapi"
	"surfsup-server/internal/migrate"
	"surfsup-server/internal/modules/climate"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
)

const stationsCSV = `station,name,latitude,longitude,elevation
USC00519397,"WAIKIKI 717.2, HI US",21.2716,-157.8168,3.0
USC00519281,"WAIHEE 837.5, HI US",21.45167,-157.84888999999998,32.9
USC00513117,"KANEOHE 838.1, HI US",21.4234,-157.8015,14.6
`

const measurementsCSV = `station,date,prcp,tobs
USC00519397,2016-08-23,0.00,81
USC00519281,2016-08-23,1.79,77
USC00519281,2016-08-24,2.15,77
USC00519397,2016-08-24,0.08,79
USC00513117,2016-08-24,,76
USC00519281,2016-08-25,0.06,80
USC00519397,2017-01-01,1.0,60
USC00519281,2017-01-01,0.5,70
`

func newClimateServer(t *testing.T) *httptest.Server {
	t.Helper()
	is := is.New(t)

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	is.NoErr(err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	is.NoErr(migrate.Run(db, config.DriverSQLite))
	_, err = migrate.Import(context.Background(), db, config.DriverSQLite, strings.NewReader(stationsCSV), strings.NewReader(measurementsCSV))
	is.NoErr(err)
	is.NoErr(views.LoadTemplates())

	router := httpapi.NewRouter(db)
	is.NoErr(climate.RegisterFeature(context.Background(), router, db, config.DriverSQLite))

	ts := httptest.NewServer(httpapi.NewServer(config.Config{}, router).Handler)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestIndex(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/")
	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	for _, route := range []string{"/api/v1.0/precipitation", "/api/v1.0/stations", "/api/v1.0/tobs"} {
		is.True(strings.Contains(string(body), route))
	}
}

func TestPrecipitation(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/api/v1.0/precipitation")
	is.Equal(resp.StatusCode, http.StatusOK)

	var entries []types.PrecipitationEntry
	is.NoErr(json.Unmarshal(body, &entries))
	is.Equal(len(entries), 8) // one per measurement row
	is.Equal(entries[4].Date, "2016-08-24")
	is.True(entries[4].Prcp == nil) // empty cell is served as null
	is.True(strings.Contains(string(body), `"prcp":null`))
}

func TestStations(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/api/v1.0/stations")
	is.Equal(resp.StatusCode, http.StatusOK)

	var ids []string
	is.NoErr(json.Unmarshal(body, &ids))
	is.Equal(len(ids), 3)
}

func TestTobs(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/api/v1.0/tobs")
	is.Equal(resp.StatusCode, http.StatusOK)

	var tobs []float64
	is.NoErr(json.Unmarshal(body, &tobs))
	is.Equal(tobs, []float64{77, 80, 70}) // USC00519281 after 2016-08-23
}

func TestTemperatureStatsFrom(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/api/v1.0/2017-01-01")
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(strings.TrimSpace(string(body)), `[["2017-01-01",60,70,65]]`)

	_, body = get(t, ts, "/api/v1.0/2016-08-24")
	var stats []types.TemperatureStats
	is.NoErr(json.Unmarshal(body, &stats))
	is.Equal(len(stats), 3)
	for i := 1; i < len(stats); i++ {
		is.True(stats[i-1].Date < stats[i].Date) // ascending by date
	}
	for _, s := range stats {
		is.True(s.Min <= s.Avg && s.Avg <= s.Max)
	}
}

func TestTemperatureStatsRange(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	_, body := get(t, ts, "/api/v1.0/2016-08-23/2016-08-24")
	var stats []types.TemperatureStats
	is.NoErr(json.Unmarshal(body, &stats))
	is.Equal(len(stats), 2)
	is.Equal(stats[0], types.TemperatureStats{Date: "2016-08-23", Min: 77, Max: 81, Avg: 79})
	is.Equal(stats[1].Date, "2016-08-24")

	resp, body := get(t, ts, "/api/v1.0/2016-08-25/2016-08-23")
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(strings.TrimSpace(string(body)), `[]`)

	resp, body = get(t, ts, "/api/v1.0/2030-01-01")
	is.Equal(resp.StatusCode, http.StatusOK)
	is.Equal(strings.TrimSpace(string(body)), `[]`)
}

func TestMalformedDate(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, body := get(t, ts, "/api/v1.0/23-08-2016")
	is.Equal(resp.StatusCode, http.StatusBadRequest)

	var errBody map[string]string
	is.NoErr(json.Unmarshal(body, &errBody))
	is.Equal(errBody["error"], "Bad Request")
	is.Equal(errBody["message"], "invalid 'start' (expected yyyy-mm-dd)")
}

func TestRequestIDHeaderOnEveryResponse(t *testing.T) {
	is := is.New(t)
	ts := newClimateServer(t)

	resp, _ := get(t, ts, "/api/v1.0/stations")
	is.True(resp.Header.Get("X-Request-ID") != "")

	resp, _ = get(t, ts, "/missing")
	is.Equal(resp.StatusCode, http.StatusNotFound)
	is.True(resp.Header.Get("X-Request-ID") != "")
}

func TestNonGetIsJSON405(t *testing.T) {
	ts := newClimateServer(t)

	for _, path := range []string{"/api/v1.0/stations", "/api/v1.0/2017-01-01", "/api/v1.0/2016-08-23/2016-08-24", "/"} {
		t.Run(path, func(t *testing.T) {
			is := is.New(t)

			resp, err := ts.Client().Post(ts.URL+path, "application/json", nil)
			is.NoErr(err)
			defer func() { _ = resp.Body.Close() }()

			is.Equal(resp.StatusCode, http.StatusMethodNotAllowed)
			var body map[string]string
			is.NoErr(json.NewDecoder(resp.Body).Decode(&body))
			is.Equal(body["error"], "Method Not Allowed")
		})
	}
}

func TestRepeatedGetsReturnIdenticalBodies(t *testing.T) {
	ts := newClimateServer(t)

	for _, path := range []string{
		"/api/v1.0/precipitation",
		"/api/v1.0/stations",
		"/api/v1.0/tobs",
		"/api/v1.0/2016-08-23",
		"/api/v1.0/2016-08-23/2016-08-25",
	} {
		t.Run(path, func(t *testing.T) {
			is := is.New(t)

			first, firstBody := get(t, ts, path)
			second, secondBody := get(t, ts, path)
			is.Equal(first.StatusCode, http.StatusOK)
			is.Equal(second.StatusCode, http.StatusOK)
			is.True(len(firstBody) > 0)
			is.True(bytes.Equal(firstBody, secondBody))
		})
	}
}

func TestRegisterFeature_RejectsDatabaseWithoutSchema(t *testing.T) {
	is := is.New(t)

	db, err := sql.Open("sqlite3", ":memory:")
	is.NoErr(err)
	defer func() { _ = db.Close() }()

	err = climate.RegisterFeature(context.Background(), httpapi.NewRouter(db), db, config.DriverSQLite)
	is.True(err != nil)
}
