// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/medusa/medusa/internal/config"
	"github.com/medusa/medusa/internal/identity"
	"github.com/medusa/medusa/internal/logging"
)

const serviceName = "medusa"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the medusa CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "medusa",
		Short: "Medusa - multi-tenant authentication core",
		Long: `Medusa stores tenant-scoped users with Argon2id credentials and
issues opaque, fixed-lifetime session tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/medusa/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newUserCmd(deps))
	cmd.AddCommand(newTokenCmd(deps))
	cmd.AddCommand(newConfigCmd(deps))

	return cmd
}

// loadConfig reads configuration for cmd, honouring --config and the
// override flags.
func loadConfig(cmd *cobra.Command, deps *Deps) (*config.Config, error) {
	cfg, err := deps.ConfigLoader(configFile, cmd.Flags())
	if err != nil {
		return nil, oops.With("operation", "load config").Wrap(err)
	}
	return cfg, nil
}

// withService loads and validates configuration, builds the identity
// service and runs fn with it. Logs go to the command's stderr.
func withService(cmd *cobra.Command, deps *Deps, fn func(ctx context.Context, svc *identity.Service) error) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup(serviceName, version, cfg.Log.Format, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.ContextWithAttrs(ctx, slog.String("command", cmd.CommandPath()))

	svc, closeFn, err := deps.ServiceFactory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, svc)
}

// newIdentityService wires the postgres repositories into the identity
// service.
func newIdentityService(pool Pool, cfg *config.Config, logger *slog.Logger) (*identity.Service, error) {
	users, tokens, profiles := newRepositories(pool)

	digests, err := identity.NewHMACTokenHasher([]byte(cfg.Auth.TokenSecret))
	if err != nil {
		return nil, err
	}
	issuer, err := identity.NewTokenIssuer(tokens, users, digests)
	if err != nil {
		return nil, err
	}
	return identity.NewService(users, profiles, issuer, identity.NewArgon2idHasher(), identity.WithLogger(logger))
}

func parseID(name, value string) (ulid.ULID, error) {
	if value == "" {
		return ulid.ULID{}, oops.Code("INVALID_ARGUMENT").Errorf("--%s is required", name)
	}
	id, err := ulid.Parse(value)
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_ARGUMENT").With("flag", name).Wrapf(err, "invalid --%s", name)
	}
	return id, nil
}
