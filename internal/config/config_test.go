package config

import (
	"log/slog"
	"testing"
	"time"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
	"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	"DB_DRIVER", "DB_DSN", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_LOG_SQL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.HTTPReadTimeout != 5*time.Second || got.HTTPWriteTimeout != 10*time.Second || got.HTTPIdleTimeout != time.Minute {
		t.Errorf("timeouts = %v/%v/%v, want 5s/10s/1m0s", got.HTTPReadTimeout, got.HTTPWriteTimeout, got.HTTPIdleTimeout)
	}
	if got.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", got.Driver, DriverSQLite)
	}
	if got.SQLitePath != "Resources/hawaii.sqlite" {
		t.Errorf("SQLitePath = %q, want %q", got.SQLitePath, "Resources/hawaii.sqlite")
	}
	if got.MaxOpenConns != 4 || got.MaxIdleConns != 4 {
		t.Errorf("pool = %d/%d, want 4/4", got.MaxOpenConns, got.MaxIdleConns)
	}
	if got.ConnMaxLifetime != 0 {
		t.Errorf("ConnMaxLifetime = %v, want 0", got.ConnMaxLifetime)
	}
	if got.LogSQL {
		t.Errorf("LogSQL = true, want false")
	}
}

func TestLoadFromEnv_AppEnv_Valid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		want   string
	}{
		{name: "dev", appEnv: "dev", want: "dev"},
		{name: "prod", appEnv: "prod", want: "prod"},
		{name: "dev with whitespace", appEnv: "  dev  ", want: "dev"},
		{name: "prod with whitespace", appEnv: "\nprod\t", want: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.AppEnv != tt.want {
				t.Errorf("AppEnv = %q, want %q", got.AppEnv, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "staging env", key: "APP_ENV", val: "staging"},
		{name: "uppercase env", key: "APP_ENV", val: "DEV"},
		{name: "loud log level", key: "LOG_LEVEL", val: "loud"},
		{name: "unknown driver", key: "DB_DRIVER", val: "mysql"},
		{name: "postgres without dsn", key: "DB_DRIVER", val: "postgres"},
		{name: "open conns not a number", key: "DB_MAX_OPEN_CONNS", val: "many"},
		{name: "idle conns not a number", key: "DB_MAX_IDLE_CONNS", val: "1.5"},
		{name: "bad lifetime", key: "DB_CONN_MAX_LIFETIME", val: "forever"},
		{name: "negative read timeout", key: "HTTP_READ_TIMEOUT", val: "-1s"},
		{name: "bad write timeout", key: "HTTP_WRITE_TIMEOUT", val: "10"},
		{name: "bad log sql", key: "DB_LOG_SQL", val: "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.val)
			}
		})
	}
}

func TestLoadFromEnv_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", " postgres://surfsup@localhost/hawaii?sslmode=disable ")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want %q", got.Driver, DriverPostgres)
	}
	if got.DSN != "postgres://surfsup@localhost/hawaii?sslmode=disable" {
		t.Errorf("DSN = %q, want trimmed value", got.DSN)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "  127.0.0.1:8081  ")
	t.Setenv("SQLITE_PATH", "/data/hawaii.sqlite")
	t.Setenv("DB_MAX_OPEN_CONNS", "8")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("HTTP_WRITE_TIMEOUT", "30s")

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.HTTPAddr != "127.0.0.1:8081" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, "127.0.0.1:8081")
	}
	if got.SQLitePath != "/data/hawaii.sqlite" {
		t.Errorf("SQLitePath = %q", got.SQLitePath)
	}
	if got.MaxOpenConns != 8 || got.MaxIdleConns != 2 {
		t.Errorf("pool = %d/%d, want 8/2", got.MaxOpenConns, got.MaxIdleConns)
	}
	if got.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 5m", got.ConnMaxLifetime)
	}
	if !got.LogSQL {
		t.Errorf("LogSQL = false, want true")
	}
	if got.HTTPWriteTimeout != 30*time.Second {
		t.Errorf("HTTPWriteTimeout = %v, want 30s", got.HTTPWriteTimeout)
	}
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "nope", "warns", "1"} {
		t.Run(in, func(t *testing.T) {
			got, err := parseLogLevel(in)
			if err == nil {
				t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", in)
			}
			if got != slog.LevelInfo {
				t.Errorf("parseLogLevel(%q) = %v, want %v on error", in, got, slog.LevelInfo)
			}
		})
	}
}
