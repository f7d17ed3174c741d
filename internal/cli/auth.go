package cli

import (
	"github.com/chepyr/tareas/internal/auth"
	"github.com/spf13/cobra"
)

func (a *app) flow() *auth.Flow {
	return auth.NewFlow(a.client, a.store,
		auth.WithExchanger(a.exchanger()),
		auth.WithLogger(a.logger))
}

func newLoginCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:         "login <email>",
		Short:       "Log in, creating the account if it does not exist",
		Args:        cobra.ExactArgs(1),
		Annotations: loginRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := a.flow()
			outcome, err := flow.Submit(cmd.Context(), args[0])
			if err != nil {
				return a.explain(err)
			}
			if outcome == auth.OutcomeNeedsConfirmation {
				if !yes && !a.confirm("No account found for "+flow.PendingEmail()+". Create one?") {
					_ = flow.Cancel()
					a.status("login cancelled")
					return nil
				}
				if _, err := flow.Confirm(cmd.Context()); err != nil {
					return a.explain(err)
				}
				a.status("account created")
			}
			if user, ok := a.store.User(); ok {
				a.status("logged in as %s", user.Email)
			} else {
				a.status("logged in")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "create the account without asking")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.flow().Logout()
			a.status("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged in user",
		Args:        cobra.NoArgs,
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := a.store.User()
			if !ok {
				a.status("logged in")
				return nil
			}
			a.status("%s (%s)", user.Email, user.ID)
			return nil
		},
	}
}
