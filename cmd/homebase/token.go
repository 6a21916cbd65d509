package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homebase/internal/server"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		create string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		Long:  "Issues a bearer token for an existing user (--user) or creates a new user without a household (--create).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == 0) == (create == "") {
				return errors.New("exactly one of --user or --create is required")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			users := server.NewServices(a.deps, nil).Users
			if create != "" {
				u, err := users.Create(ctx, create, nil)
				if err != nil {
					return err
				}
				userID = u.ID
				fmt.Fprintf(cmd.ErrOrStderr(), "created user %d (%s)\n", u.ID, u.Name)
			} else {
				u, err := users.GetByID(ctx, userID)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("user %d not found", userID)
				}
			}

			token, err := a.deps.Tokens.Issue(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "existing user id")
	cmd.Flags().StringVar(&create, "create", "", "create a user with this name")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}
