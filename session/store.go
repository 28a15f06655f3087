package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beegy-labs/edgeguard/internal"
)

// ErrStoreUnavailable wraps Redis transport failures. It chains onto
// [internal.ErrDependencyUnavailable] so one errors.Is check at the root
// package matches unavailability from any backend.
var ErrStoreUnavailable = fmt.Errorf("session store unavailable: %w", internal.ErrDependencyUnavailable)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session record not found")

const minTTL = time.Second

// Store persists session records in Redis under a key prefix. Safe for
// concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session store. prefix namespaces the Redis keys.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "egs"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Save persists a record with the given TTL.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if ttl < minTTL {
		ttl = minTTL
	}

	if err := s.redis.Set(ctx, s.key(sess.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves a record by session id without mutating TTL.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID
	return sess, nil
}

const touchAttempts = 3

// Touch bumps a record's last-activity stamp and resets its TTL without
// rewriting any other field. It runs as a WATCH-guarded compare-and-set so a
// concurrent whole-record write (token rotation) is never clobbered; the
// touch simply retries against the fresh record. The stamp only moves
// forward.
func (s *Store) Touch(ctx context.Context, sessionID string, lastActivity int64, ttl time.Duration) error {
	key := s.key(sessionID)
	if ttl < minTTL {
		ttl = minTTL
	}

	for attempt := 0; attempt < touchAttempts; attempt++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrNotFound
				}
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}

			sess, err := Decode(data)
			if err != nil {
				return err
			}
			if lastActivity > sess.LastActivityAt {
				sess.LastActivityAt = lastActivity
			}

			encoded, err := Encode(sess)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, ttl)
				return nil
			})
			return err
		}, key)

		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: touch contention on session %s", ErrStoreUnavailable, internal.MaskID(sessionID))
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
