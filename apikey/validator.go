// Package apikey validates service-to-service API keys against a
// refreshable, hashed key set.
//
// Only SHA-256 hashes of accepted keys are retained in memory; plaintext
// keys never survive past the hashing step. Comparison is constant-time and
// a dummy comparison still runs when the candidate matches nothing, so
// timing reveals neither key content nor key-set size.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"
	"time"
)

// KeySource supplies the currently accepted plaintext keys, typically from
// configuration or a secret manager. Called at most once per refresh
// interval.
type KeySource interface {
	Keys(ctx context.Context) ([]string, error)
}

// StaticKeys is a fixed in-memory [KeySource].
type StaticKeys []string

// Keys returns the static key list.
func (s StaticKeys) Keys(context.Context) ([]string, error) {
	return s, nil
}

const defaultRefreshInterval = 60 * time.Second

// Config holds validator settings.
type Config struct {
	// RefreshInterval bounds how often the key set is reloaded from the
	// source. Default 60s. The check is lazy and per-call, not a background
	// timer.
	RefreshInterval time.Duration

	// ProductionMode makes an empty configured key set a fatal construction
	// error instead of a silent always-reject.
	ProductionMode bool

	// Warn receives refresh failures. Optional.
	Warn func(format string, args ...any)

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Validator validates candidate keys against the hashed key set. Safe for
// concurrent use; reads never block on a refresh in progress.
type Validator struct {
	source KeySource
	cfg    Config

	mu          sync.RWMutex
	hashes      [][sha256.Size]byte
	refreshedAt time.Time
	stale       bool

	refreshMu sync.Mutex
}

// NewValidator loads the initial key set and returns the validator.
func NewValidator(ctx context.Context, source KeySource, cfg Config) (*Validator, error) {
	if source == nil {
		return nil, errors.New("nil key source")
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	v := &Validator{source: source, cfg: cfg}
	if err := v.refresh(ctx); err != nil {
		return nil, err
	}
	if cfg.ProductionMode && v.keyCount() == 0 {
		return nil, errors.New("no api keys configured in production mode")
	}

	return v, nil
}

// Validate reports whether the candidate matches any accepted key. The
// stored set is refreshed first when stale.
func (v *Validator) Validate(ctx context.Context, candidate string) bool {
	v.maybeRefresh(ctx)

	candidateHash := sha256.Sum256([]byte(candidate))

	v.mu.RLock()
	hashes := v.hashes
	v.mu.RUnlock()

	// Accumulate the match over the full set; no early exit, and an empty
	// set still performs one comparison against a dummy digest so the
	// miss path costs the same as a one-key set.
	match := 0
	for i := range hashes {
		match |= subtle.ConstantTimeCompare(candidateHash[:], hashes[i][:])
	}
	if len(hashes) == 0 {
		var dummy [sha256.Size]byte
		subtle.ConstantTimeCompare(candidateHash[:], dummy[:])
	}

	return match == 1
}

// InvalidateCache forces a refresh on the next Validate call. Used when keys
// are rotated out-of-band.
func (v *Validator) InvalidateCache() {
	v.mu.Lock()
	v.stale = true
	v.mu.Unlock()
}

// KeyCount returns the number of accepted keys currently loaded.
func (v *Validator) KeyCount() int {
	return v.keyCount()
}

func (v *Validator) keyCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.hashes)
}

func (v *Validator) maybeRefresh(ctx context.Context) {
	v.mu.RLock()
	due := v.stale || v.cfg.Now().Sub(v.refreshedAt) >= v.cfg.RefreshInterval
	v.mu.RUnlock()
	if !due {
		return
	}

	// At most one refresher at a time; concurrent callers proceed with the
	// current set. Refreshing early is harmless, so losing this race is too.
	if !v.refreshMu.TryLock() {
		return
	}
	defer v.refreshMu.Unlock()

	if err := v.refresh(ctx); err != nil && v.cfg.Warn != nil {
		v.cfg.Warn("edgeguard: api key refresh failed, keeping previous set: %v", err)
	}
}

func (v *Validator) refresh(ctx context.Context) error {
	keys, err := v.source.Keys(ctx)
	if err != nil {
		return err
	}

	hashes := make([][sha256.Size]byte, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		hashes = append(hashes, sha256.Sum256([]byte(k)))
	}

	v.mu.Lock()
	v.hashes = hashes
	v.refreshedAt = v.cfg.Now()
	v.stale = false
	v.mu.Unlock()

	return nil
}
