package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func oauthStateKey(state string) string {
	return "oauth:state:" + state
}

// OAuthStateStore keeps pending OAuth2 login states; each state is usable once.
type OAuthStateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOAuthStateStore(rdb *redis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{rdb: rdb, ttl: ttl}
}

func (s *OAuthStateStore) Put(ctx context.Context, state, provider string) error {
	return s.rdb.Set(ctx, oauthStateKey(state), provider, s.ttl).Err()
}

// Consume deletes the state and reports whether it existed for provider.
func (s *OAuthStateStore) Consume(ctx context.Context, state, provider string) (bool, error) {
	v, err := s.rdb.GetDel(ctx, oauthStateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == provider, nil
}
