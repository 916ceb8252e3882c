package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Markers records authorization codes that have already been handed to the
// identity provider. A code is exchanged at most once: the marker is written
// with SETNX before any network call, so a replayed code — including one
// replayed after a process restart — is refused instead of re-exchanged.
type Markers struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewMarkers creates a consumed-code marker store. ttl bounds how long a code
// stays marked; authorization codes are short-lived, so a few minutes suffice.
func NewMarkers(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *Markers {
	if prefix == "" {
		prefix = "af"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Markers{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (m *Markers) key(code string) string {
	return m.prefix + ":code:" + code
}

// Consume atomically marks the code as used. It returns true exactly once per
// code: the first caller wins, every later caller sees false.
func (m *Markers) Consume(ctx context.Context, code string) (bool, error) {
	first, err := m.redis.SetNX(ctx, m.key(code), "1", m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return first, nil
}
