// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/pflag"

	"github.com/medusa/medusa/internal/config"
	"github.com/medusa/medusa/internal/identity"
	"github.com/medusa/medusa/internal/identity/postgres"
	"github.com/medusa/medusa/internal/observability"
	"github.com/medusa/medusa/internal/store"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// ConfigLoader reads configuration.
	// Default: config.Load
	ConfigLoader func(path string, flags *pflag.FlagSet) (*config.Config, error)

	// PoolFactory opens the database pool.
	// Default: store.Open
	PoolFactory func(ctx context.Context, url string, retries uint64) (Pool, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checks observability.Checks, regs ...observability.Registration) ObservabilityServer

	// ServiceFactory builds the identity service for one-shot commands.
	// The returned func releases its resources.
	// Default: PoolFactory + postgres repositories
	ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*identity.Service, func(), error)

	// Getenv reads environment variables.
	// Default: os.Getenv
	Getenv func(key string) string
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}

	if out.ConfigLoader == nil {
		out.ConfigLoader = config.Load
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, url string, retries uint64) (Pool, error) {
			pool, err := store.Open(ctx, url, retries)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checks observability.Checks, regs ...observability.Registration) ObservabilityServer {
			return observability.NewServer(addr, checks, regs...)
		}
	}
	if out.ServiceFactory == nil {
		poolFactory := out.PoolFactory
		out.ServiceFactory = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*identity.Service, func(), error) {
			pool, err := poolFactory(ctx, cfg.Database.URL, cfg.Database.ConnectRetries)
			if err != nil {
				return nil, nil, err
			}
			svc, err := newIdentityService(pool, cfg, logger)
			if err != nil {
				pool.Close()
				return nil, nil, err
			}
			return svc, pool.Close, nil
		}
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	return out
}

// Pool is the database handle used by the commands. *pgxpool.Pool
// satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (*store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func newRepositories(pool Pool) (*postgres.UserRepository, *postgres.TokenRepository, *postgres.ProfileRepository) {
	return postgres.NewUserRepository(pool), postgres.NewTokenRepository(pool), postgres.NewProfileRepository(pool)
}
