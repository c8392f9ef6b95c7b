package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore tracks revoked access tokens in Redis. Logged-out
// tokens stay listed until their natural expiry; a nil client disables
// revocation entirely.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks a token revoked for ttl. No-op without a client.
func (s *RevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	return s.client.Set(ctx, revocationKey(token), "1", ttl).Err()
}

// IsRevoked reports whether a token has been revoked. Without a client
// every token passes.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	exists, err := s.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func revocationKey(token string) string {
	return "revoked:access:" + token
}
