package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes is the entropy of a code verifier before encoding, per
// RFC 7636 recommendations.
const verifierBytes = 32

// PKCEChallenge is a code verifier together with its S256 challenge. The
// pair is generated once per login attempt and never mutated.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
}

// NewPKCEChallenge generates a fresh verifier/challenge pair.
func NewPKCEChallenge() PKCEChallenge {
	verifier := randomToken(verifierBytes)
	return PKCEChallenge{
		Verifier:  verifier,
		Challenge: ChallengeFrom(verifier),
	}
}

// ChallengeFrom computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)), unpadded.
func ChallengeFrom(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// randomToken returns length bytes of entropy, base64url-encoded without
// padding. crypto/rand failing leaves nothing sensible to do, so it is fatal.
func randomToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func newStateToken() string {
	return randomToken(24)
}
