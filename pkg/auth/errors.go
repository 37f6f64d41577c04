package auth

import (
	"errors"
	"fmt"
)

// ErrCallbackClosed is returned by CallbackServer.Await when the listener
// stops before an authorization code has been delivered.
var ErrCallbackClosed = errors.New("callback listener closed before receiving an authorization code")

// ExchangeError reports a token endpoint response that was not a usable
// success: a non-2xx status, an undecodable body, or a body missing the
// access token. The raw status and body are kept for diagnostics.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned HTTP %d: %s", e.StatusCode, truncateBody(e.Body))
}

func truncateBody(body string) string {
	const limit = 256
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
