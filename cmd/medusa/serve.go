// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/medusa/medusa/internal/logging"
	"github.com/medusa/medusa/internal/observability"
	"github.com/medusa/medusa/internal/store"
	"github.com/medusa/medusa/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	autoMigrate bool
}

func newServeCmd(deps *Deps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the identity service",
		Long: `Connect to the database, check that the identity service can be
built and expose health probes plus runtime and build metrics until
interrupted. No authentication traffic is handled here, so only runtime,
build and dependency metrics are exported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, cmd, deps, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", false, "apply pending migrations before starting")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, deps *Deps, opts *serveOptions) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate config").Wrap(err)
	}

	logger := logging.Setup(serviceName, version, cfg.Log.Format, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Info("starting medusa",
		"log_format", cfg.Log.Format,
		"metrics_addr", cfg.Metrics.Addr,
		"auto_migrate", opts.autoMigrate,
	)

	if opts.autoMigrate {
		if err := runAutoMigrate(deps, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL, cfg.Database.ConnectRetries)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	// Construction validates the token secret and repository wiring.
	if _, err := newIdentityService(pool, cfg, logger); err != nil {
		return oops.With("operation", "build identity service").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr,
			observability.Checks{"database": store.PingCheck(pool)},
			observability.BuildInfo(version, commit),
		)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("medusa started")
	logger.Info("medusa ready")

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// runAutoMigrate applies pending migrations and releases the migrator.
func runAutoMigrate(deps *Deps, databaseURL string) error {
	migrator, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "failed to close migrator", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	return nil
}

// monitorServerErrors cancels ctx when a background server reports an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			errutil.LogError(slog.Default(), "server error, initiating shutdown", oops.With("server", name).Wrap(err))
			cancel()
		}
	case <-ctx.Done():
	}
}
