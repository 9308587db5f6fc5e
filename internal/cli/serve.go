package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/metrics"
	"github.com/aydocorp/opscomposer/internal/refdata"
	"github.com/aydocorp/opscomposer/internal/server"
	"github.com/aydocorp/opscomposer/internal/storage"
)

// MetricsBackupFile receives mission activity points when InfluxDB is unreachable.
const MetricsBackupFile = "mission_activity.lp.gz"

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mission persistence service",
		Long: `Serve the mission API backed by the configured storage (memory, sqlite or postgres).

The user directory and vessel compendium are re-served from refdata.usersFile,
refdata.usersUrl, refdata.shipsFile or refdata.shipsUrl. Saves and deletes are
broadcast on /ws and, when influx.enabled is set, recorded as activity points.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := start(cmd, "opscomposer-server", false)
			if err != nil {
				return err
			}
			defer s.close()
			fmt.Fprintf(cmd.OutOrStdout(), "Logging to %s\n", describeLog(s))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, err := storage.NewBackend(config.GetStorageConfig(), s.logger)
			if err != nil {
				return fmt.Errorf("failed to create storage backend: %w", err)
			}
			if err := backend.Init(); err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() {
				if err := backend.Close(); err != nil {
					s.logger.Error("Failed to close storage", "error", err)
				}
			}()

			dir, cat := serverSources(config.GetRefDataConfig())
			opts := []server.Option{server.WithLogger(s.logger)}

			if ic := config.GetInfluxConfig(); ic.Enabled {
				w, err := metrics.Connect(ctx, ic, filepath.Join(logsDir(), MetricsBackupFile), s.logger)
				if err != nil {
					s.logger.Error("Mission activity metrics disabled", "error", err)
				} else {
					w.Start()
					defer closeMetrics(w, s)
					opts = append(opts, server.WithRecorder(w))
				}
			}

			cfg := config.GetServerConfig()
			if listen != "" {
				cfg.Listen = listen
			}
			srv, err := server.New(backend, dir, cat, cfg, opts...)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")
	return cmd
}

func closeMetrics(w *metrics.Writer, s *session) {
	if err := w.Close(); err != nil {
		s.logger.Error("Failed to flush mission activity", "error", err)
	}
}

// serverSources picks the reference providers the service re-serves. Unlike
// the composer, the service never falls back to its own endpoints.
func serverSources(cfg config.RefDataConfig) (refdata.Directory, refdata.Catalog) {
	var dir refdata.Directory = refdata.StaticDirectory(nil)
	switch {
	case cfg.UsersURL != "":
		dir = refdata.HTTPDirectory{URL: cfg.UsersURL}
	case cfg.UsersFile != "":
		dir = refdata.FileDirectory{Path: cfg.UsersFile}
	}

	var cat refdata.Catalog = refdata.StaticCatalog(nil)
	switch {
	case cfg.ShipsURL != "":
		cat = refdata.HTTPCatalog{URL: cfg.ShipsURL}
	case cfg.ShipsFile != "":
		cat = refdata.FileCatalog{Path: cfg.ShipsFile}
	}
	return dir, cat
}
