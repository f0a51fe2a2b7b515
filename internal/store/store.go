// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package store manages the PostgreSQL connection pool and schema migrations
// backing the identity repositories.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultRetryBase is the first backoff interval between connection attempts.
const DefaultRetryBase = 500 * time.Millisecond

// Open creates a connection pool for databaseURL and waits until the database
// answers a ping. The ping is retried up to retries times with exponential
// backoff starting at DefaultRetryBase.
func Open(ctx context.Context, databaseURL string, retries uint64) (*pgxpool.Pool, error) {
	return open(ctx, databaseURL, retries, DefaultRetryBase)
}

func open(ctx context.Context, databaseURL string, retries uint64, base time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(base))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.WarnContext(ctx, "database not reachable",
				"attempt", attempt,
				"host", cfg.ConnConfig.Host,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return pool, nil
}

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a health probe that fails while the database does not
// answer a ping. The caller bounds it with ctx.
func PingCheck(db Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return oops.Code("DB_UNREACHABLE").With("operation", "ping database").Wrap(err)
		}
		return nil
	}
}
