package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// bearerPrefix namespaces access-token keys in Valkey.
	bearerPrefix = "token:"

	// bearerLength is the byte length of the random token (32 bytes = 64 hex chars).
	bearerLength = 32
)

// Bearer manages access-token lifecycle in Valkey. A token is an opaque
// random identifier mapped to the holder's user ID with automatic TTL
// expiry; the user row itself stays in PostgreSQL so role changes take
// effect on the next request.
type Bearer struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBearer creates a bearer-token store backed by the given Valkey client.
func NewBearer(client *redis.Client, ttl time.Duration) *Bearer {
	return &Bearer{
		client: client,
		ttl:    ttl,
	}
}

// Issue generates a new token for the given user and stores it with the
// configured TTL.
func (b *Bearer) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	tok, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("token issue: %w", err)
	}

	if err := b.client.Set(ctx, bearerPrefix+tok, userID.String(), b.ttl).Err(); err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}

	return tok, nil
}

// Lookup resolves a token to the holder's user ID. The second return is
// false when the token is unknown or expired (not an error).
func (b *Bearer) Lookup(ctx context.Context, tok string) (uuid.UUID, bool, error) {
	val, err := b.client.Get(ctx, bearerPrefix+tok).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("token lookup: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("token parse holder: %w", err)
	}
	return id, true, nil
}

// Revoke removes a token. Revoking an unknown token is a no-op.
func (b *Bearer) Revoke(ctx context.Context, tok string) error {
	if err := b.client.Del(ctx, bearerPrefix+tok).Err(); err != nil {
		return fmt.Errorf("token revoke: %w", err)
	}
	return nil
}

// generateToken creates a cryptographically random token identifier.
func generateToken() (string, error) {
	buf := make([]byte, bearerLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
