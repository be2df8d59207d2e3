package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"surfsup-server/internal/app"
	"surfsup-server/internal/config"
	"surfsup-server/internal/logging"
)

const appName = "surfsup"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

type cli struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Read-only HTTP API over the Hawaii climate dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			c.cfg = cfg
			slog.SetDefault(logging.New(cfg, version, appName))
			slog.Info("starting",
				"app", appName,
				"version", version,
				"env", cfg.AppEnv,
				"log_level", cfg.LogLevel.String(),
				"command", cmd.Name(),
			)
			return nil
		},
		RunE: c.runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the API from a read-only database connection",
			Args:  cobra.NoArgs,
			RunE:  c.runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending schema migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.RunMigrate(c.cfg); err != nil {
					return err
				}
				slog.Info("migrations applied")
				return nil
			},
		},
		newImportCmd(c),
	)
	return root
}

func newImportCmd(c *cli) *cobra.Command {
	var stationsPath, measurementsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the station and measurement CSV files into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.RunImport(cmd.Context(), c.cfg, stationsPath, measurementsPath)
			if err != nil {
				return err
			}
			slog.Info("import finished", "stations", stats.Stations, "measurements", stats.Measurements)
			return nil
		},
	}
	cmd.Flags().StringVar(&stationsPath, "stations", "", "CSV file with station,name,latitude,longitude,elevation")
	cmd.Flags().StringVar(&measurementsPath, "measurements", "", "CSV file with station,date,prcp,tobs")
	_ = cmd.MarkFlagRequired("stations")
	_ = cmd.MarkFlagRequired("measurements")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	err := app.Run(cmd.Context(), c.cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("shutting down")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("run failed", "err", err)
		stop()
		os.Exit(1)
	}
}
