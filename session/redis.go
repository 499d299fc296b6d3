package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/MrEthical07/goGallery/identity"
	"github.com/redis/go-redis/v9"
)

const (
	minSlidingTTL     = time.Second
	maxReplaceRetries = 8
)

var errReplaceContended = errors.New("session replace contended")

// stringGetter is satisfied by both the client and a WATCH transaction.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisBackend is a Redis-backed [Backend]. Each session is one string key
// holding the [Encode] blob.
//
//	Key layout: <prefix>:<sessionID>
type RedisBackend struct {
	redis         redis.UniversalClient
	prefix        string
	ttl           time.Duration
	sliding       bool
	jitterEnabled bool
	jitterRange   time.Duration
}

// NewRedisBackend creates a backend on the given client. ttl bounds how long
// an untouched session survives; sliding renews it on every Load, shifted by
// a random jitter within ±jitterRange when jitterEnabled.
func NewRedisBackend(
	redis redis.UniversalClient,
	prefix string,
	ttl time.Duration,
	sliding bool,
	jitterEnabled bool,
	jitterRange time.Duration,
) *RedisBackend {
	return &RedisBackend{
		redis:         redis,
		prefix:        prefix,
		ttl:           ttl,
		sliding:       sliding,
		jitterEnabled: jitterEnabled,
		jitterRange:   jitterRange,
	}
}

func (b *RedisBackend) key(sessionID string) string {
	return b.prefix + ":" + sessionID
}

// Load implements [Backend].
//
//	Performance: 1 GET, plus 1 EXPIRE when sliding.
func (b *RedisBackend) Load(ctx context.Context, sessionID string) (UserSession, error) {
	key := b.key(sessionID)

	sess, err := b.read(ctx, b.redis, key)
	if err != nil {
		return UserSession{}, err
	}
	sess.SessionID = sessionID

	if b.sliding && sess.Generation > 0 && b.ttl > 0 {
		nextTTL, err := b.nextSlidingTTL()
		if err != nil {
			return UserSession{}, err
		}
		if err := b.redis.Expire(ctx, key, nextTTL).Err(); err != nil {
			return UserSession{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	return sess, nil
}

// Replace implements [Backend] with an optimistic WATCH/MULTI transaction so
// the generation advances exactly once per successful write.
func (b *RedisBackend) Replace(ctx context.Context, sessionID string, user identity.UserRecord, fetchedAt int64) (UserSession, error) {
	if err := checkRecordSize(user); err != nil {
		return UserSession{}, err
	}
	key := b.key(sessionID)

	var out UserSession
	txf := func(tx *redis.Tx) error {
		prev, err := b.read(ctx, tx, key)
		if err != nil {
			return err
		}

		next := UserSession{
			SessionID:  sessionID,
			User:       user,
			FetchedAt:  fetchedAt,
			Generation: prev.Generation + 1,
		}
		data, err := Encode(&next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, b.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}

	for i := 0; i < maxReplaceRetries; i++ {
		err := b.redis.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrInvalidEncoding) {
			return UserSession{}, err
		}
		return UserSession{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return UserSession{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, errReplaceContended)
}

// Delete implements [Backend].
func (b *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	if err := b.redis.Del(ctx, b.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Ping measures a Redis round-trip.
func (b *RedisBackend) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}

func (b *RedisBackend) read(ctx context.Context, c stringGetter, key string) (UserSession, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return UserSession{}, nil
		}
		return UserSession{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return UserSession{}, err
	}
	return *sess, nil
}

func (b *RedisBackend) nextSlidingTTL() (time.Duration, error) {
	nextTTL := b.ttl

	if b.jitterEnabled && b.jitterRange > 0 {
		jitter, err := randomJitter(b.jitterRange)
		if err != nil {
			return 0, err
		}
		nextTTL += jitter
	}

	if nextTTL < minSlidingTTL {
		nextTTL = minSlidingTTL
	}

	return nextTTL, nil
}

func randomJitter(jitterRange time.Duration) (time.Duration, error) {
	if jitterRange <= 0 {
		return 0, nil
	}

	max := jitterRange.Nanoseconds()
	if max > (math.MaxInt64-1)/2 {
		return 0, errors.New("jitter range too large")
	}
	span := max*2 + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}

	return time.Duration(n.Int64() - max), nil
}
