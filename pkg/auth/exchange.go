package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxTokenResponseBytes bounds how much of a token response is read and
// carried in diagnostics.
const maxTokenResponseBytes = 1 << 20

const defaultExchangeTimeout = 30 * time.Second

// TokenSet is the credential material obtained from a successful exchange
// and the exact shape persisted by a TokenStore.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Exchanger performs the single authorization-code-for-token POST. No
// retries: any failure surfaces immediately to the caller.
type Exchanger struct {
	TokenURL    string
	Credentials Credentials
	RedirectURL string
	Client      *http.Client
	Log         *zap.SugaredLogger
}

// Exchange posts the authorization code and the verifier from the same
// login attempt to the token endpoint and decodes the response.
//
// Transport failures come back wrapped; a non-2xx status or a body that
// does not decode into a token set with an access token comes back as an
// *ExchangeError carrying the raw status and body.
func (e *Exchanger) Exchange(ctx context.Context, code, verifier string) (*TokenSet, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {e.Credentials.ClientID},
		"client_secret": {e.Credentials.ClientSecret},
		"code_verifier": {verifier},
		"redirect_uri":  {e.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: defaultExchangeTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	e.log().Debugw("token endpoint responded", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if tokens.AccessToken == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &tokens, nil
}

func (e *Exchanger) log() *zap.SugaredLogger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop().Sugar()
}
