package cooldown

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the persistence backend cannot be reached.
var ErrUnavailable = errors.New("cooldown storage unavailable")

var errCorruptRecord = errors.New("corrupt cooldown record")

const recordFormatVersionV1 = 1

// Config controls key namespacing and the clock source.
type Config struct {
	// Prefix namespaces all cooldown keys. Defaults to "af".
	Prefix string
	// Clock supplies the current time. Defaults to time.Now. Tests inject a
	// fake clock here.
	Clock func() time.Time
}

// Timer persists per-subject cooldown records in Redis.
type Timer struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a cooldown timer over the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Timer {
	if cfg.Prefix == "" {
		cfg.Prefix = "af"
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Timer{
		redis:  redisClient,
		prefix: cfg.Prefix,
		now:    cfg.Clock,
	}
}

func (t *Timer) key(subject string) string {
	return t.prefix + ":cooldown:" + subject
}

// Start begins (or restarts) the cooldown for subject. The record is written
// in one SET with a TTL equal to the duration, so it clears itself once the
// cooldown elapses.
func (t *Timer) Start(ctx context.Context, subject string, d time.Duration) error {
	if d <= 0 {
		return errors.New("cooldown duration must be positive")
	}
	encoded := encodeRecord(t.now().Unix(), uint32(d/time.Second))
	if err := t.redis.Set(ctx, t.key(subject), encoded, d).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remaining reports how much of the cooldown for subject is left, clamped to
// [0, duration]. A missing or corrupt record reads as zero.
func (t *Timer) Remaining(ctx context.Context, subject string) (time.Duration, error) {
	raw, err := t.redis.Get(ctx, t.key(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	startedAt, durationSeconds, err := decodeRecord(raw)
	if err != nil {
		// Fail safe: a blob this Timer cannot read should not block resends.
		_ = t.redis.Del(ctx, t.key(subject)).Err()
		return 0, nil
	}

	duration := time.Duration(durationSeconds) * time.Second
	rem := time.Unix(startedAt, 0).Add(duration).Sub(t.now())
	if rem <= 0 {
		// TTL normally reaps the record; this covers clock drift between
		// writer and reader.
		_ = t.redis.Del(ctx, t.key(subject)).Err()
		return 0, nil
	}
	if rem > duration {
		rem = duration
	}
	return rem, nil
}

// Clear removes the cooldown for subject before it elapses. Idempotent.
func (t *Timer) Clear(ctx context.Context, subject string) error {
	if err := t.redis.Del(ctx, t.key(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func encodeRecord(startedAt int64, durationSeconds uint32) []byte {
	var buf bytes.Buffer
	buf.WriteByte(recordFormatVersionV1)
	_ = binary.Write(&buf, binary.BigEndian, startedAt)
	_ = binary.Write(&buf, binary.BigEndian, durationSeconds)
	return buf.Bytes()
}

func decodeRecord(data []byte) (startedAt int64, durationSeconds uint32, err error) {
	if len(data) != 13 || data[0] != recordFormatVersionV1 {
		return 0, 0, errCorruptRecord
	}
	startedAt = int64(binary.BigEndian.Uint64(data[1:9]))
	durationSeconds = binary.BigEndian.Uint32(data[9:13])
	return startedAt, durationSeconds, nil
}
