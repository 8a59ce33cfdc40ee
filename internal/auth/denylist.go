package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "auth:denylist:"

// TokenDenylist records revoked token IDs in Redis until their natural
// expiry. With no Redis client configured every operation is a no-op, so
// logout degrades to stateless JWT behavior.
type TokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist wraps the Redis client.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Deny marks a token ID as revoked for the given duration.
func (d *TokenDenylist) Deny(ctx context.Context, tokenID string, until time.Duration) error {
	if d == nil || d.client == nil || tokenID == "" {
		return nil
	}
	if until <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistKeyPrefix+tokenID, "1", until).Err()
}

// IsDenied reports whether the token ID has been revoked.
func (d *TokenDenylist) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	if d == nil || d.client == nil || tokenID == "" {
		return false, nil
	}
	if err := d.client.Get(ctx, denylistKeyPrefix+tokenID).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
