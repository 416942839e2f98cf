// Package entitlement persists the caller's entitlement token in the system
// keychain. A present token marks the unlimited tier; an absent token marks
// the free tier. The server remains the authority on whether a token is
// actually honored.
package entitlement

import (
	"log/slog"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "vidbrief"
	slotName    = "entitlement-token"
)

// Store holds the entitlement token: loaded from the keychain once at
// startup, written on upgrade, and read on every pipeline request.
type Store struct {
	mu     sync.RWMutex
	token  string
	logger *slog.Logger
}

// NewStore creates an empty Store. Call Load to pick up a previously
// granted token.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{logger: logger}
}

// Load reads the token from the keychain into memory and returns it.
// Any keychain failure (missing entry, locked keychain, corrupt slot)
// degrades to the free tier rather than propagating.
func (s *Store) Load() string {
	value, err := keyring.Get(serviceName, slotName)
	if err != nil {
		s.logger.Debug("No entitlement token in keychain", "error", err)
		value = ""
	}

	s.mu.Lock()
	s.token = value
	s.mu.Unlock()

	return value
}

// Grant records the token in memory and writes it to the keychain.
// Granting the same token twice is a no-op. A keychain write failure is
// logged and the token survives in memory only; the grant itself never
// fails.
func (s *Store) Grant(token string) {
	s.mu.Lock()
	already := s.token == token
	s.token = token
	s.mu.Unlock()

	if already {
		return
	}

	if err := keyring.Set(serviceName, slotName, token); err != nil {
		s.logger.Warn("Failed to persist entitlement token; it will not survive restart", "error", err)
	}
}

// Current returns the in-memory token without touching the keychain.
// Empty string means no entitlement.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}
