package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Driver is either sqlite3 or postgres. DSN wins over SQLitePath when set.
	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LogSQL routes every statement through the logging connector at debug level.
	LogSQL bool
}

func LoadFromEnv() (Config, error) {
	appEnv := env("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := envDuration("HTTP_READ_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := envDuration("HTTP_WRITE_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	idleTimeout, err := envDuration("HTTP_IDLE_TIMEOUT", "60s")
	if err != nil {
		return Config{}, err
	}

	driver := env("DB_DRIVER", DriverSQLite)
	dsn := env("DB_DSN", "")
	switch driver {
	case DriverSQLite:
	case DriverPostgres:
		if dsn == "" {
			return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: %s, %s)", driver, DriverSQLite, DriverPostgres)
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", "4")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", "4")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}

	logSQLStr := env("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:  readTimeout,
		HTTPWriteTimeout: writeTimeout,
		HTTPIdleTimeout:  idleTimeout,
		Driver:           driver,
		DSN:              dsn,
		SQLitePath:       env("SQLITE_PATH", "Resources/hawaii.sqlite"),
		MaxOpenConns:     maxOpenConns,
		MaxIdleConns:     maxIdleConns,
		ConnMaxLifetime:  connMaxLifetime,
		LogSQL:           logSQL,
	}, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key, fallback string) (int, error) {
	s := env(key, fallback)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	s := env(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
