package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LoginFlow sequences one interactive login attempt: generate a PKCE pair,
// start the loopback listener, display the authorization URL, wait for the
// redirect, exchange the code with the verifier from the same attempt, and
// persist the result. Re-invocation starts a completely fresh attempt; there
// is no session resumption.
type LoginFlow struct {
	Credentials Credentials
	Endpoint    oauth2.Endpoint // zero value: GoogleEndpoint
	Scopes      []string        // empty: DefaultScopes
	Port        int             // loopback callback port; 0 picks a free one
	Store       TokenStore

	// Timeout bounds the wait for the user to complete the login in the
	// browser. Zero means wait indefinitely.
	Timeout time.Duration

	Out         io.Writer
	OpenBrowser func(url string) error // nil: print the URL only
	Client      *http.Client
	Log         *zap.SugaredLogger

	// Test seams; production code leaves them nil.
	newChallenge func() PKCEChallenge
	newState     func() string
}

// Login runs the flow. The first failing step aborts the attempt and its
// error is returned wrapped with the phase that failed.
func (f *LoginFlow) Login(ctx context.Context) error {
	if f.Store == nil {
		return errors.New("no token store configured")
	}
	if f.Credentials.ClientID == "" {
		return errors.New("no OAuth client ID configured")
	}

	challenge := f.challenge()
	state := f.state()

	server := NewCallbackServer(f.Port, state, f.Log)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		_ = server.Close()
	}()

	endpoint := f.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = GoogleEndpoint
	}
	scopes := f.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	oauthCfg := oauth2.Config{
		ClientID:     f.Credentials.ClientID,
		ClientSecret: f.Credentials.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  server.RedirectURL(),
		Scopes:       scopes,
	}
	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	_, _ = fmt.Fprintf(f.out(), "Open the following URL in your browser:\n%s\n", authURL)
	if f.OpenBrowser != nil {
		if err := f.OpenBrowser(authURL); err != nil {
			f.log().Debugw("failed to open browser", "error", err)
		}
	}

	waitCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	code, err := server.Await(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for authorization callback: %w", err)
	}

	exchanger := &Exchanger{
		TokenURL:    endpoint.TokenURL,
		Credentials: f.Credentials,
		RedirectURL: server.RedirectURL(),
		Client:      f.Client,
		Log:         f.Log,
	}
	tokens, err := exchanger.Exchange(ctx, code, challenge.Verifier)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := f.Store.Save(*tokens); err != nil {
		return fmt.Errorf("authentication succeeded but storing tokens failed: %w", err)
	}
	f.log().Debugw("login complete", "refresh_token", tokens.RefreshToken != "", "expires_in", tokens.ExpiresIn)
	return nil
}

func (f *LoginFlow) challenge() PKCEChallenge {
	if f.newChallenge != nil {
		return f.newChallenge()
	}
	return NewPKCEChallenge()
}

func (f *LoginFlow) state() string {
	if f.newState != nil {
		return f.newState()
	}
	return newStateToken()
}

func (f *LoginFlow) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return io.Discard
}

func (f *LoginFlow) log() *zap.SugaredLogger {
	if f.Log != nil {
		return f.Log
	}
	return zap.NewNop().Sugar()
}
