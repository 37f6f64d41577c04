package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const defaultKeyringAccount = "oauth-tokens"

// KeyringTokenStore keeps the token set in the OS keychain instead of a
// file. Access control is delegated to the platform secret service.
type KeyringTokenStore struct {
	Service string
	Account string
}

func (s *KeyringTokenStore) account() string {
	if s.Account != "" {
		return s.Account
	}
	return defaultKeyringAccount
}

func (s *KeyringTokenStore) Save(tokens TokenSet) error {
	content, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	if err := keyring.Set(s.Service, s.account(), string(content)); err != nil {
		return fmt.Errorf("failed to store tokens in keyring: %w", err)
	}
	return nil
}

func (s *KeyringTokenStore) Load() (*TokenSet, error) {
	content, err := keyring.Get(s.Service, s.account())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tokens from keyring: %w", err)
	}
	var tokens TokenSet
	if err := json.Unmarshal([]byte(content), &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse keyring tokens: %w", err)
	}
	return &tokens, nil
}

func (s *KeyringTokenStore) Clear() error {
	if err := keyring.Delete(s.Service, s.account()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove tokens from keyring: %w", err)
	}
	return nil
}
