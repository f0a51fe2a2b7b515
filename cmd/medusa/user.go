// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"context"
	"errors"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/medusa/medusa/internal/identity"
)

// EnvPassword supplies the password when --password is not given.
const EnvPassword = "MEDUSA_PASSWORD"

type credentialFlags struct {
	tenant   string
	email    string
	password string
	client   string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "tenant ID (ULID)")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.password, "password", "", "password (default: $"+EnvPassword+")")
	cmd.Flags().StringVar(&f.client, "client", "medusa-cli", "client context recorded on the token")
}

func (f *credentialFlags) resolvePassword(deps *Deps) (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	if pw := deps.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	return "", oops.Code("INVALID_ARGUMENT").Errorf("password is required (use --password or %s)", EnvPassword)
}

func newUserCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserAuthCmd(deps, "register", "Create a user and print a session token",
		func(ctx context.Context, svc *identity.Service, f *credentialFlags, password string) (string, error) {
			tenant, err := parseID("tenant", f.tenant)
			if err != nil {
				return "", err
			}
			return svc.Register(ctx, tenant, f.email, password, f.client)
		}))
	cmd.AddCommand(newUserAuthCmd(deps, "login", "Authenticate and print a new session token",
		func(ctx context.Context, svc *identity.Service, f *credentialFlags, password string) (string, error) {
			tenant, err := parseID("tenant", f.tenant)
			if err != nil {
				return "", err
			}
			return svc.Login(ctx, tenant, f.email, password, f.client)
		}))
	cmd.AddCommand(newUserListCmd(deps))
	cmd.AddCommand(newUserShowCmd(deps))
	cmd.AddCommand(newUserDeleteCmd(deps))
	cmd.AddCommand(newProfileCmd(deps))

	return cmd
}

type authFunc func(ctx context.Context, svc *identity.Service, f *credentialFlags, password string) (string, error)

// newUserAuthCmd builds register and login, which share flags and print the
// raw token exactly once.
func newUserAuthCmd(deps *Deps, use, short string, run authFunc) *cobra.Command {
	f := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := f.resolvePassword(deps)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				token, err := run(ctx, svc, f, password)
				if err != nil {
					return describeAuthError(err)
				}
				cmd.Println(token)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

// describeAuthError keeps the error chain and adds a readable message.
func describeAuthError(err error) error {
	switch {
	case errors.Is(err, identity.ErrConflict):
		return oops.Wrapf(err, "email address already registered")
	case errors.Is(err, identity.ErrUnauthorized):
		return oops.Wrapf(err, "invalid email or password")
	case errors.Is(err, identity.ErrInvalidInput):
		return oops.Wrapf(err, "invalid input")
	}
	return err
}

func newUserListCmd(deps *Deps) *cobra.Command {
	var tenantFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", tenantFlag)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				users, err := svc.ListUsers(ctx, tenant)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = w.Write([]byte("ID\tEMAIL\tCREATED\n"))
				for _, u := range users {
					_, _ = w.Write([]byte(u.ID.String() + "\t" + u.EmailAddress + "\t" + u.CreatedAt.Format(time.RFC3339) + "\n"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID (ULID)")
	return cmd
}

func newUserShowCmd(deps *Deps) *cobra.Command {
	var tenantFlag, idFlag, emailFlag string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user by --id or --email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", tenantFlag)
			if err != nil {
				return err
			}
			if (idFlag == "") == (emailFlag == "") {
				return oops.Code("INVALID_ARGUMENT").Errorf("exactly one of --id or --email is required")
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				var user *identity.UserView
				if idFlag != "" {
					id, err := parseID("id", idFlag)
					if err != nil {
						return err
					}
					user, err = svc.GetUser(ctx, tenant, id)
					if err != nil {
						return err
					}
				} else {
					user, err = svc.GetUserByEmail(ctx, tenant, emailFlag)
					if err != nil {
						return err
					}
				}
				printUser(cmd, user)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID (ULID)")
	cmd.Flags().StringVar(&idFlag, "id", "", "user ID (ULID)")
	cmd.Flags().StringVar(&emailFlag, "email", "", "email address")
	return cmd
}

func newUserDeleteCmd(deps *Deps) *cobra.Command {
	var tenantFlag, idFlag string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user with its tokens and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := parseID("tenant", tenantFlag)
			if err != nil {
				return err
			}
			id, err := parseID("id", idFlag)
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				if err := svc.DeleteUser(ctx, tenant, id); err != nil {
					return err
				}
				cmd.Printf("Deleted user %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID (ULID)")
	cmd.Flags().StringVar(&idFlag, "id", "", "user ID (ULID)")
	return cmd
}

func newProfileCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or set a user's profile",
	}

	var tenantFlag, userFlag string
	bindOwner := func(c *cobra.Command) {
		c.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID (ULID)")
		c.Flags().StringVar(&userFlag, "user", "", "user ID (ULID)")
	}
	owner := func() (ulid.ULID, ulid.ULID, error) {
		tenant, err := parseID("tenant", tenantFlag)
		if err != nil {
			return ulid.ULID{}, ulid.ULID{}, err
		}
		user, err := parseID("user", userFlag)
		if err != nil {
			return ulid.ULID{}, ulid.ULID{}, err
		}
		return tenant, user, nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show a user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user, err := owner()
			if err != nil {
				return err
			}
			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				profile, err := svc.GetProfile(ctx, tenant, user)
				if err != nil {
					return err
				}
				printProfile(cmd, profile)
				return nil
			})
		},
	}
	bindOwner(show)

	var first, last string
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update a user's profile",
		Long: `Create the profile if the user has none, otherwise update the names
given on the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, user, err := owner()
			if err != nil {
				return err
			}
			var upd identity.ProfileUpdate
			if cmd.Flags().Changed("first") {
				upd.FirstName = &first
			}
			if cmd.Flags().Changed("last") {
				upd.LastName = &last
			}
			if upd.FirstName == nil && upd.LastName == nil {
				return oops.Code("INVALID_ARGUMENT").Errorf("at least one of --first or --last is required")
			}

			return withService(cmd, deps, func(ctx context.Context, svc *identity.Service) error {
				profile, err := svc.UpdateProfile(ctx, tenant, user, upd)
				if errors.Is(err, identity.ErrNotFound) {
					profile, err = svc.CreateProfile(ctx, tenant, user, first, last)
				}
				if err != nil {
					return err
				}
				printProfile(cmd, profile)
				return nil
			})
		},
	}
	bindOwner(set)
	set.Flags().StringVar(&first, "first", "", "first name")
	set.Flags().StringVar(&last, "last", "", "last name")

	cmd.AddCommand(show, set)
	return cmd
}

func printUser(cmd *cobra.Command, u *identity.UserView) {
	cmd.Printf("ID:       %s\n", u.ID)
	cmd.Printf("Tenant:   %s\n", u.TenantID)
	cmd.Printf("Email:    %s\n", u.EmailAddress)
	cmd.Printf("Created:  %s\n", u.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Updated:  %s\n", u.UpdatedAt.Format(time.RFC3339))
}

func printProfile(cmd *cobra.Command, p *identity.UserProfile) {
	cmd.Printf("User:     %s\n", p.UserID)
	cmd.Printf("First:    %s\n", p.FirstName)
	cmd.Printf("Last:     %s\n", p.LastName)
	cmd.Printf("Updated:  %s\n", p.UpdatedAt.Format(time.RFC3339))
}
