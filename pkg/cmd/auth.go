package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dripware/dripctl/pkg/auth"
	"github.com/dripware/dripctl/pkg/config"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		timeout   time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login via OAuth2 with PKCE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}

			creds, err := resolveCredentials(rt.cfg)
			if err != nil {
				return err
			}

			endpoint := auth.GoogleEndpoint
			if rt.cfg.OAuth.Authority != "" {
				endpoint, err = auth.DiscoverEndpoint(cmd.Context(), rt.cfg.OAuth.Authority)
				if err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("timeout") {
				timeout, err = rt.cfg.OAuth.LoginTimeoutValue()
				if err != nil {
					return err
				}
			}

			flow := &auth.LoginFlow{
				Credentials: creds,
				Endpoint:    endpoint,
				Scopes:      rt.cfg.OAuth.Scopes,
				Port:        rt.cfg.Server.Port,
				Store:       rt.tokenStore(),
				Timeout:     timeout,
				Out:         rt.Writer(),
				Log:         rt.Logger(),
			}
			if !noBrowser {
				flow.OpenBrowser = auth.OpenBrowser
			}

			if err := flow.Login(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Authenticated.")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound the wait for the browser callback (0 waits indefinitely)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			tokens, err := rt.tokenStore().Load()
			if err != nil {
				return err
			}
			if tokens == nil {
				_, _ = fmt.Fprintln(rt.Writer(), "Not authenticated")
				return nil
			}
			if tokens.RefreshToken != "" {
				_, _ = fmt.Fprintln(rt.Writer(), "Authenticated (refresh token stored)")
			} else {
				_, _ = fmt.Fprintln(rt.Writer(), "Authenticated")
			}
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			if err := rt.tokenStore().Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out")
			return nil
		},
	}
}

// resolveCredentials combines the config with the build-time client
// identity; the config wins when both are set.
func resolveCredentials(cfg *config.Config) (auth.Credentials, error) {
	clientID := cfg.OAuth.ClientID
	if clientID == "" {
		clientID = auth.DefaultClientID
	}
	if clientID == "" {
		return auth.Credentials{}, errors.New("no OAuth client ID configured (set oauth.client-id)")
	}
	secret, err := auth.ResolveClientSecret(cfg.OAuth.ClientSecret, cfg.OAuth.ClientSecretEnv, cfg.OAuth.ClientSecretFile)
	if err != nil {
		return auth.Credentials{}, err
	}
	if secret == "" {
		secret = auth.DefaultClientSecret
	}
	return auth.Credentials{ClientID: clientID, ClientSecret: secret}, nil
}
