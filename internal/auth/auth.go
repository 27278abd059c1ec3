// Package auth is the credential validator: a constant-time gateway API key
// check plus issue/consume of one-time tokens. Tokens are stored hashed and
// consumed atomically; a failed validation is terminal for that request.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// TokenStore persists one-time tokens. Implemented by db.DB.
type TokenStore interface {
	InsertAuthToken(ctx context.Context, tokenHash, userID, purpose string, expiresAt time.Time) error
	ConsumeAuthToken(ctx context.Context, tokenHash, purpose string) (string, error)
}

// Service validates credentials for protected routes.
type Service struct {
	apiKeyHash [sha256.Size]byte
	tokens     TokenStore
	ttl        time.Duration
}

// NewService creates a credential validator. Only the hash of the gateway
// key is retained.
func NewService(apiKey string, tokens TokenStore, ttl time.Duration) *Service {
	return &Service{
		apiKeyHash: sha256.Sum256([]byte(apiKey)),
		tokens:     tokens,
		ttl:        ttl,
	}
}

// ValidateAPIKey checks the provided gateway key in constant time.
func (s *Service) ValidateAPIKey(provided string) error {
	if provided == "" {
		return apierr.Auth("missing API key")
	}
	h := sha256.Sum256([]byte(provided))
	if subtle.ConstantTimeCompare(h[:], s.apiKeyHash[:]) != 1 {
		return apierr.Auth("invalid API key")
	}
	return nil
}

// IssueToken mints a one-time token for a user and purpose. The raw token is
// returned to the caller; only its hash is stored.
func (s *Service) IssueToken(ctx context.Context, userID, purpose string) (string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiresAt := time.Now().Add(s.ttl)

	if err := s.tokens.InsertAuthToken(ctx, hashToken(token), userID, purpose, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ConsumeToken validates a one-time token and marks it used. Succeeds at
// most once per token; the second caller gets an auth failure.
func (s *Service) ConsumeToken(ctx context.Context, token, purpose string) (string, error) {
	if token == "" {
		return "", apierr.Auth("missing token")
	}
	return s.tokens.ConsumeAuthToken(ctx, hashToken(token), purpose)
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
