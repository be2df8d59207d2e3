package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"surfsup-server/internal/config"
)

// Mode selects how the dataset is opened. The API only ever reads; the
// migrate and import tools need write access.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func Open(cfg config.Config, mode Mode) (*sql.DB, error) {
	dsn, err := buildDSN(cfg, mode)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := driverFor(cfg.Driver)
		if err != nil {
			return nil, err
		}
		connector, err := NewLoggingConnector(drv, dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db connector: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Validate connectivity early
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Rebind rewrites '?' placeholders into the positional form the driver expects.
func Rebind(driverName, query string) string {
	if driverName != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func driverFor(name string) (driver.Driver, error) {
	switch name {
	case config.DriverSQLite:
		return &sqlite3.SQLiteDriver{}, nil
	case config.DriverPostgres:
		return &pq.Driver{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", name)
	}
}

func buildDSN(cfg config.Config, mode Mode) (string, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return buildSQLiteDSN(cfg, mode)
	case config.DriverPostgres:
		return buildPostgresDSN(cfg.DSN, mode), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func buildSQLiteDSN(cfg config.Config, mode Mode) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := cfg.SQLitePath
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
	}

	// Rollback journal only: a WAL database cannot always be opened with mode=ro.
	if mode == ReadOnly {
		// mode=ro refuses to create the file, so a missing dataset fails the ping.
		params = append(params, "mode=ro")
	} else {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// lib/pq forwards unknown parameters to the server as run-time settings.
func buildPostgresDSN(dsn string, mode Mode) string {
	if mode != ReadOnly {
		return dsn
	}
	const param = "default_transaction_read_only=on"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + param
	}
	return strings.TrimSpace(dsn + " " + param)
}
