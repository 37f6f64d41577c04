package auth

import (
	"fmt"
	"os"
	"strings"
)

// Default client identity, injected at build time via -ldflags:
//
//	-X github.com/dripware/dripctl/pkg/auth.DefaultClientID=...
//	-X github.com/dripware/dripctl/pkg/auth.DefaultClientSecret=...
var (
	DefaultClientID     = ""
	DefaultClientSecret = ""
)

// Credentials is the OAuth client identity. It is constructed once at
// startup and passed by reference through the flow; it never changes during
// a login attempt.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// ResolveClientSecret returns the first configured secret source: the
// literal value, the named environment variable, or the file contents.
// An empty result is not an error; public clients have no secret.
func ResolveClientSecret(secret, secretEnv, secretFile string) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if secretEnv != "" {
		value := strings.TrimSpace(os.Getenv(secretEnv))
		if value == "" {
			return "", fmt.Errorf("client secret env var not set: %s", secretEnv)
		}
		return value, nil
	}
	if secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return "", fmt.Errorf("failed to read client secret file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return "", nil
}
