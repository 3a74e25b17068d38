// Package auth issues and verifies owner session tokens. Session storage
// itself is external; a token carries only the owner ID, encrypted and
// signed with a fernet key.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// ErrInvalidToken indicates a token that is missing, malformed, expired, or
// signed with a different key.
var ErrInvalidToken = errors.New("invalid session token")

type contextKey struct{}

// TokenIssuer encrypts owner IDs into bearer tokens and back.
type TokenIssuer struct {
	key *fernet.Key
	ttl time.Duration
}

// NewTokenIssuer creates a TokenIssuer from a base64-encoded fernet key.
// When encodedKey is empty a fresh key is generated; tokens then do not
// survive a restart.
func NewTokenIssuer(encodedKey string, ttl time.Duration) (*TokenIssuer, error) {
	var key *fernet.Key

	if encodedKey == "" {
		key = &fernet.Key{}
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	} else {
		decoded, err := fernet.DecodeKey(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode session key: %w", err)
		}
		key = decoded
	}

	return &TokenIssuer{key: key, ttl: ttl}, nil
}

// Issue returns a bearer token for the given owner ID.
func (i *TokenIssuer) Issue(ownerID string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(ownerID), i.key)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return string(token), nil
}

// Verify decrypts a bearer token and returns the owner ID it carries.
func (i *TokenIssuer) Verify(token string) (string, error) {
	ownerID := fernet.VerifyAndDecrypt([]byte(token), i.ttl, []*fernet.Key{i.key})
	if ownerID == nil {
		return "", ErrInvalidToken
	}
	return string(ownerID), nil
}

// WithOwner returns a context carrying the authenticated owner ID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner ID, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(contextKey{}).(string)
	return ownerID, ok && ownerID != ""
}
