package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beegy-labs/edgeguard/breaker"
	"github.com/beegy-labs/edgeguard/internal"
)

// ErrStoreUnavailable wraps cache/store transport failures. It chains onto
// [internal.ErrDependencyUnavailable] so one errors.Is check at the root
// package matches unavailability from any backend.
var ErrStoreUnavailable = fmt.Errorf("revocation backend unavailable: %w", internal.ErrDependencyUnavailable)

// Record is a revoked-token entry read from the durable store. The store is
// owned by whichever service performs logout or password change; the checker
// only reads it.
type Record struct {
	TokenID   string
	SubjectID string
	Reason    string
	// ExpiresAt is when the record itself may be purged. An expired record
	// no longer revokes anything.
	ExpiresAt time.Time
}

// Store is the durable revoked-token lookup. Lookup returns (nil, nil) when
// the token id is not in the revoked set.
type Store interface {
	Lookup(ctx context.Context, tokenID string) (*Record, error)
}

// Result is the outcome of a revocation check. CheckFailed true means the
// dependency could not answer; the caller applies fail-secure or fail-open
// policy.
type Result struct {
	Revoked     bool
	CheckFailed bool
}

// Config holds checker settings.
type Config struct {
	// CacheTTL bounds revocation staleness. Default 30s.
	CacheTTL time.Duration
	// CachePrefix namespaces cache keys. Default "egrv".
	CachePrefix string
	// Breaker configures the circuit breaker guarding the lookup.
	Breaker breaker.Config
	// Warn receives dependency failure detail with masked token ids.
	Warn func(format string, args ...any)
	// Now overrides the clock in tests.
	Now func() time.Time
}

const (
	defaultCacheTTL    = 30 * time.Second
	defaultCachePrefix = "egrv"

	cacheRevoked    = "1"
	cacheNotRevoked = "0"
)

// Checker performs breaker-guarded cache-aside revocation lookups. Safe for
// concurrent use.
type Checker struct {
	cache redis.UniversalClient
	store Store
	br    *breaker.Breaker
	cfg   Config
}

// NewChecker creates a revocation checker. cache may be nil, in which case
// every lookup goes to the store.
func NewChecker(cache redis.UniversalClient, store Store, cfg Config) (*Checker, error) {
	if store == nil {
		return nil, errors.New("nil revocation store")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheTTL > 5*time.Minute {
		return nil, errors.New("revocation cache TTL exceeds staleness bound")
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = defaultCachePrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Checker{
		cache: cache,
		store: store,
		br:    breaker.New("revocation-lookup", cfg.Breaker),
		cfg:   cfg,
	}, nil
}

// IsRevoked checks the token id against the revoked set. A token without a
// jti has nothing to look up and is reported as not revoked.
func (c *Checker) IsRevoked(ctx context.Context, tokenID string) Result {
	if tokenID == "" {
		return Result{}
	}

	var revoked bool
	err := c.br.Do(func() error {
		var lookupErr error
		revoked, lookupErr = c.lookup(ctx, tokenID)
		return lookupErr
	})
	if err != nil {
		if c.cfg.Warn != nil {
			c.cfg.Warn("edgeguard: revocation check failed for token %s: %v",
				internal.MaskID(tokenID), err)
		}
		return Result{CheckFailed: true}
	}

	return Result{Revoked: revoked}
}

// BreakerSnapshot exposes the guarding breaker's state for health reporting.
func (c *Checker) BreakerSnapshot() breaker.Snapshot {
	return c.br.Snapshot()
}

func (c *Checker) lookup(ctx context.Context, tokenID string) (bool, error) {
	key := c.cfg.CachePrefix + ":" + tokenID

	if c.cache != nil {
		val, err := c.cache.Get(ctx, key).Result()
		if err == nil {
			return val == cacheRevoked, nil
		}
		if !errors.Is(err, redis.Nil) {
			return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	record, err := c.store.Lookup(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	revoked := record != nil
	if revoked && !record.ExpiresAt.IsZero() && !record.ExpiresAt.After(c.cfg.Now()) {
		// The record outlived the token it revoked; treat as purged.
		revoked = false
	}

	if c.cache != nil {
		val := cacheNotRevoked
		if revoked {
			val = cacheRevoked
		}
		if err := c.cache.Set(ctx, key, val, c.cfg.CacheTTL).Err(); err != nil && c.cfg.Warn != nil {
			c.cfg.Warn("edgeguard: revocation cache populate failed for token %s: %v",
				internal.MaskID(tokenID), err)
		}
	}

	return revoked, nil
}
