package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Exchange email/password for a bearer token",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			s, err := apiClientFor(cfg).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printSession(cmd, s.Token, s.User.ID, s.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var fullName, username, email, password string

	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Create an account and obtain a bearer token",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			s, err := apiClientFor(cfg).Register(cmd.Context(), fullName, username, email, password)
			if err != nil {
				return err
			}
			printSession(cmd, s.Token, s.User.ID, s.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&username, "username", "", "handle")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func printSession(cmd *cobra.Command, token, userID, username string) {
	fmt.Fprintf(cmd.OutOrStdout(), "export WINSPIRE_TOKEN=%s\n", token)
	fmt.Fprintf(cmd.OutOrStdout(), "export WINSPIRE_USER_ID=%s\n", userID)
	fmt.Fprintf(cmd.OutOrStdout(), "export WINSPIRE_USERNAME=%s\n", username)
}
