// Package security guards the checkout mutation endpoints: CSRF token
// issuance and validation, fixed-window rate limiting, session-id hygiene and
// input sanitization. Every check here runs before any business logic, so a
// rejected request never causes side effects.
package security

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
)

// csrfTokenBytes is the token entropy. 32 bytes = 256 bits.
const csrfTokenBytes = 32

// DefaultCSRFTTL is how long an issued token stays valid.
const DefaultCSRFTTL = 24 * time.Hour

// CSRFManager issues and validates per-session CSRF tokens. Tokens live in
// the injected TTL store; issuing a new token overwrites the previous one, so
// no two tokens are ever simultaneously valid for a session.
type CSRFManager struct {
	store cache.Store
	ttl   time.Duration
}

func NewCSRFManager(store cache.Store, ttl time.Duration) *CSRFManager {
	if ttl <= 0 {
		ttl = DefaultCSRFTTL
	}
	return &CSRFManager{store: store, ttl: ttl}
}

// Issue generates a fresh token bound to sessionID, invalidating any token
// issued earlier for the same session.
func (m *CSRFManager) Issue(ctx context.Context, sessionID string) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: generate csrf token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := m.store.Set(ctx, cache.Key("csrf", sessionID), token, m.ttl); err != nil {
		return "", fmt.Errorf("security: store csrf token: %w", err)
	}
	return token, nil
}

// Validate reports whether token is the live token for sessionID. An expired
// or never-issued token validates false. The comparison is constant-time:
// both sides are hashed to a fixed length first, so execution time leaks
// neither the position of the first differing byte nor the token length.
func (m *CSRFManager) Validate(ctx context.Context, sessionID, token string) (bool, error) {
	stored, err := m.store.Get(ctx, cache.Key("csrf", sessionID))
	if err != nil {
		return false, fmt.Errorf("security: load csrf token: %w", err)
	}

	storedSum := sha256.Sum256([]byte(stored))
	givenSum := sha256.Sum256([]byte(token))
	match := subtle.ConstantTimeCompare(storedSum[:], givenSum[:]) == 1

	// An absent token must never validate, even against an empty submission.
	return match && stored != "", nil
}

// Revoke drops the session's token, e.g. after checkout completes.
func (m *CSRFManager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Del(ctx, cache.Key("csrf", sessionID))
}
