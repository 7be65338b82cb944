// Package cli implements the feedctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"winspire.app/internal/api"
	"winspire.app/internal/config"
	"winspire.app/internal/protocol"
)

// RootOptions holds global flags shared by all commands. Credential flags
// fall back to the WINSPIRE_* environment variables so a login can be
// exported once per shell.
type RootOptions struct {
	ConfigPath string
	Platform   string
	Token      string
	UserID     string
	Username   string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "feedctl",
		Short: "Winspire feed client",
		Long:  "Watch and interact with a winspire platform feed from the terminal.",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to client.yaml (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.Platform, "platform", "", "platform feed (instagram|twitter|facebook), overrides config")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "bearer token (or WINSPIRE_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.UserID, "user-id", "", "viewer user id (or WINSPIRE_USER_ID)")
	cmd.PersistentFlags().StringVar(&opts.Username, "username", "", "viewer username (or WINSPIRE_USERNAME)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewLikeCommand(opts))
	cmd.AddCommand(NewCommentCommand(opts))
	cmd.AddCommand(NewShareCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.Platform != "" {
		cfg.Platform = o.Platform
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (o *RootOptions) credential() (api.Session, error) {
	token := o.Token
	if token == "" {
		token = os.Getenv("WINSPIRE_TOKEN")
	}
	userID := o.UserID
	if userID == "" {
		userID = os.Getenv("WINSPIRE_USER_ID")
	}
	username := o.Username
	if username == "" {
		username = os.Getenv("WINSPIRE_USERNAME")
	}
	if token == "" || userID == "" {
		return api.Session{}, fmt.Errorf("missing credential: run 'feedctl login' and export WINSPIRE_TOKEN / WINSPIRE_USER_ID")
	}
	return api.Session{
		Token: token,
		User:  protocol.Author{ID: userID, Username: username},
	}, nil
}

// apiClientFor builds an unauthenticated client for login/register.
func apiClientFor(cfg config.Config) *api.Client {
	return api.New(cfg.APIBaseURL, "")
}

func (o *RootOptions) client() (*api.Client, config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	cred, err := o.credential()
	if err != nil {
		return nil, cfg, err
	}
	return api.New(cfg.APIBaseURL, cred.Token), cfg, nil
}
