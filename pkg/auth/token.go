package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore persists the credential material obtained from a login. The
// orchestrator depends only on this interface, never on a concrete backend.
//
// Load reports an absent store as (nil, nil), not an error, and Clear on an
// absent store is a no-op.
type TokenStore interface {
	Save(tokens TokenSet) error
	Load() (*TokenSet, error)
	Clear() error
}

// FileTokenStore keeps the token set as a JSON file readable only by the
// owning user. Each save fully overwrites the previous contents.
type FileTokenStore struct {
	Path string
}

func (s *FileTokenStore) Save(tokens TokenSet) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	if err := os.WriteFile(s.Path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Load() (*TokenSet, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tokens TokenSet
	if err := json.Unmarshal(content, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}
	return &tokens, nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStore is an in-process TokenStore for tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens *TokenSet
}

func (s *MemoryTokenStore) Save(tokens TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &tokens
	return nil
}

func (s *MemoryTokenStore) Load() (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil, nil
	}
	copied := *s.tokens
	return &copied, nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}
