package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"surfsup-server/internal/config"
	"surfsup-server/internal/db"
	"surfsup-server/internal/httpapi"
	"surfsup-server/internal/migrate"
	"surfsup-server/internal/modules/climate"
	climateviews "surfsup-server/internal/modules/climate/views"
)

const shutdownTimeout = 10 * time.Second

func logConfig(cfg config.Config) {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dsnSet", cfg.DSN != "",
		"sqlitePath", cfg.SQLitePath,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"logSQL", cfg.LogSQL,
	)
}

// Run serves the API from a read-only connection until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	logConfig(cfg)

	dbConn, err := db.Open(cfg, db.ReadOnly)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database connection successful")

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}

	router := httpapi.NewRouter(dbConn)
	if err := climate.RegisterFeature(ctx, router, dbConn, cfg.Driver); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// RunMigrate applies pending schema migrations.
func RunMigrate(cfg config.Config) error {
	logConfig(cfg)

	dbConn, err := db.Open(cfg, db.ReadWrite)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	return migrate.Run(dbConn, cfg.Driver)
}

// RunImport migrates the database and loads the two CSV files into it.
func RunImport(ctx context.Context, cfg config.Config, stationsPath, measurementsPath string) (migrate.ImportStats, error) {
	logConfig(cfg)

	stations, err := os.Open(stationsPath)
	if err != nil {
		return migrate.ImportStats{}, fmt.Errorf("open stations file: %w", err)
	}
	defer func() { _ = stations.Close() }()

	measurements, err := os.Open(measurementsPath)
	if err != nil {
		return migrate.ImportStats{}, fmt.Errorf("open measurements file: %w", err)
	}
	defer func() { _ = measurements.Close() }()

	dbConn, err := db.Open(cfg, db.ReadWrite)
	if err != nil {
		return migrate.ImportStats{}, err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn, cfg.Driver); err != nil {
		return migrate.ImportStats{}, err
	}
	return migrate.Import(ctx, dbConn, cfg.Driver, stations, measurements)
}
