package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"milify/internal/config"
)

func newTokenCmd(a *app) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage private iCal feed tokens",
	}

	var user string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new feed token, revoking the user's previous one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			svc, closeStore, err := a.service(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeStore()

			tok, err := svc.IssueFeedToken(cmd.Context(), user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	issue.Flags().StringVarP(&user, "user", "u", "", "User ID")
	token.AddCommand(issue)
	return token
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs the postgres store (driver is %q)", a.cfg.Store.Driver)
			}
			st, err := a.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			return st.Close()
		},
	}
}
