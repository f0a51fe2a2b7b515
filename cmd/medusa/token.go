// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/medusa/medusa/internal/identity"
)

func newTokenCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and revoke session tokens",
	}
	cmd.AddCommand(newTokenValidateCmd(deps))
	cmd.AddCommand(newTokenListCmd(deps))
	cmd.AddCommand(newTokenShowCmd(deps))
	cmd.AddCommand(newTokenRevokeCmd(deps))
	return cmd
}

// EnvToken supplies the raw session token to token validate. Without it the
// token is read from the first line of stdin.
const EnvToken = "MEDUSA_TOKEN"

func newTokenValidateCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve a raw session token to its user",
		Long: `Resolve a raw session token to its user. The token is taken from $` + EnvToken + `
or, when unset, from the first line of standard input, so it never appears in
process listings.`,
		Example: `  printf '%s\n' "$TOKEN" | medusa token validate`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := resolveRawToken(cmd, deps)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				user, err := svc.ValidateToken(ctx, raw)
				if err != nil {
					return err
				}
				printUser(cmd, user)
				return nil
			})
		},
	}
}

func resolveRawToken(cmd *cobra.Command, deps *Deps) (string, error) {
	if raw := strings.TrimSpace(deps.Getenv(EnvToken)); raw != "" {
		return raw, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("INVALID_ARGUMENT").With("operation", "read token from stdin").Wrap(err)
	}
	raw := strings.TrimSpace(line)
	if raw == "" {
		return "", oops.Code("INVALID_ARGUMENT").Errorf("token is required (set %s or pipe it on stdin)", EnvToken)
	}
	return raw, nil
}

type tokenOwnerFlags struct {
	tenant string
	user   string
}

func (f *tokenOwnerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "tenant ID (ULID)")
	cmd.Flags().StringVar(&f.user, "user", "", "user ID (ULID)")
}

func newTokenListCmd(deps *Deps) *cobra.Command {
	f := &tokenOwnerFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's tokens, expired ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", f.tenant)
			if err != nil {
				return err
			}
			user, err := parseID("user", f.user)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				tokens, err := svc.ListTokens(ctx, tenant, user)
				if err != nil {
					return err
				}
				now := time.Now()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tCLIENT\tEXPIRES\tSTATE")
				for _, tok := range tokens {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						tok.ID, tok.ClientContext, tok.ExpiresAt.Format(time.RFC3339), tokenState(tok, now))
				}
				return w.Flush()
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newTokenShowCmd(deps *Deps) *cobra.Command {
	f := &tokenOwnerFlags{}
	var idFlag string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one of a user's tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", f.tenant)
			if err != nil {
				return err
			}
			user, err := parseID("user", f.user)
			if err != nil {
				return err
			}
			id, err := parseID("id", idFlag)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				tok, err := svc.GetToken(ctx, tenant, user, id)
				if err != nil {
					return err
				}
				cmd.Printf("ID:       %s\n", tok.ID)
				cmd.Printf("User:     %s\n", tok.UserID)
				cmd.Printf("Client:   %s\n", tok.ClientContext)
				cmd.Printf("Created:  %s\n", tok.CreatedAt.Format(time.RFC3339))
				cmd.Printf("Expires:  %s\n", tok.ExpiresAt.Format(time.RFC3339))
				cmd.Printf("State:    %s\n", tokenState(tok, time.Now()))
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&idFlag, "id", "", "token ID (ULID)")
	return cmd
}

func newTokenRevokeCmd(deps *Deps) *cobra.Command {
	f := &tokenOwnerFlags{}
	var idFlag string
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke one of a user's tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", f.tenant)
			if err != nil {
				return err
			}
			user, err := parseID("user", f.user)
			if err != nil {
				return err
			}
			id, err := parseID("id", idFlag)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				if err := svc.RevokeToken(ctx, tenant, user, id); err != nil {
					return err
				}
				cmd.Printf("Revoked token %s\n", id)
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&idFlag, "id", "", "token ID (ULID)")
	return cmd
}

func tokenState(tok *identity.TokenView, now time.Time) string {
	if !now.Before(tok.ExpiresAt) {
		return "expired"
	}
	return "active"
}
