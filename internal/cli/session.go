package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as the shop operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BOOKINGCTL_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password (or BOOKINGCTL_PASSWORD) are required")
			}
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.SignIn(cmd.Context(), username, password); err != nil {
				return err
			}
			return opts.printMessage(cmd, map[string]bool{"authorized": true}, "Signed in.")
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "operator email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "operator password")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the operator session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.SignOut(cmd.Context()); err != nil {
				return err
			}
			return opts.printMessage(cmd, map[string]bool{"authorized": false}, "Signed out.")
		},
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show whether an operator session is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			ok := a.Gate.IsAuthorized()
			who := "visitor"
			if ok {
				who = "operator"
			}
			return opts.printMessage(cmd, map[string]bool{"authorized": ok}, "%s", who)
		},
	}
}
