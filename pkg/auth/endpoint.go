package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleEndpoint is the default provider when no authority is configured.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// DefaultScopes are requested when the config does not name any.
var DefaultScopes = []string{oidc.ScopeOpenID, "email", "profile"}

// DiscoverEndpoint resolves the authorization and token endpoints of an
// OIDC authority through its discovery document.
func DiscoverEndpoint(ctx context.Context, authority string) (oauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, authority)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return provider.Endpoint(), nil
}
