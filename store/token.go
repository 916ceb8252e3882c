package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the persistence backend cannot be reached.
// Callers are expected to degrade to in-memory persistence rather than fail.
var ErrUnavailable = errors.New("token storage unavailable")

// ErrIncompleteTokenSet is returned by [Store.Save] when the set is missing a
// token or an expiry. Partial sets are never written.
var ErrIncompleteTokenSet = errors.New("incomplete token set")

// TokenSet is the current access/refresh token pair together with the absolute
// access-token expiry. Either both tokens are present or the set is not
// persisted at all.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Complete reports whether both tokens and the expiry are present.
func (t *TokenSet) Complete() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != "" && !t.ExpiresAt.IsZero()
}

// Expired reports whether the access token lifetime has elapsed at now.
func (t *TokenSet) Expired(now time.Time) bool {
	return t == nil || !t.ExpiresAt.After(now)
}

// Remaining returns the access token lifetime left at now, floored at zero.
func (t *TokenSet) Remaining(now time.Time) time.Duration {
	if t == nil {
		return 0
	}
	rem := t.ExpiresAt.Sub(now)
	if rem < 0 {
		return 0
	}
	return rem
}

// Store persists the token set in Redis under a single key.
type Store struct {
	redis redis.UniversalClient
	key   string
}

// New creates a Redis-backed token store. All keys are namespaced under
// prefix; an empty prefix defaults to "af".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "af"
	}
	return &Store{
		redis: redisClient,
		key:   prefix + ":tokens",
	}
}

// Save writes the complete set in one SET. Incomplete sets are rejected before
// any I/O, so the previously persisted value is left untouched.
func (s *Store) Save(ctx context.Context, t *TokenSet) error {
	if !t.Complete() {
		return ErrIncompleteTokenSet
	}
	encoded, err := encodeTokenSet(t)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load returns the persisted set, or (nil, nil) when nothing usable is stored.
// Malformed blobs fail safe: they read as absent, never as an error.
func (s *Store) Load(ctx context.Context) (*TokenSet, error) {
	raw, err := s.redis.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	t, err := decodeTokenSet(raw)
	if err != nil || !t.Complete() {
		return nil, nil
	}
	return t, nil
}

// Clear removes the persisted set. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
