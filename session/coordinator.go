package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/beegy-labs/edgeguard/internal"
	"github.com/beegy-labs/edgeguard/internal/metrics"
)

// ErrExpired is returned when a session hit its idle or absolute timeout.
var ErrExpired = errors.New("session expired")

// ErrFingerprintMismatch is returned when a bound session is presented from
// a verifiably different device fingerprint. The session is terminated.
var ErrFingerprintMismatch = errors.New("device fingerprint mismatch")

// ErrFingerprintRequired is returned at establishment when the account
// type's policy mandates device binding and no fingerprint was supplied.
var ErrFingerprintRequired = errors.New("device fingerprint required")

// ErrReauthRequired is the uniform failure for every request queued on a
// refresh that did not succeed. The session is already terminated.
var ErrReauthRequired = errors.New("re-authenticate")

// TokenPair is the result of an upstream refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Refresher performs the upstream token refresh. The call runs under the
// initiating caller's context; a timed-out refresh is a refresh failure,
// not retried.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Config holds coordinator settings.
type Config struct {
	// EncryptionKey is the 32-byte key sealing session-held tokens.
	EncryptionKey []byte
	// RedisPrefix namespaces session keys. Default "egs".
	RedisPrefix string
	// Policies overrides per-account-type TTL policy. Missing entries fall
	// back to [DefaultPolicies].
	Policies map[AccountType]Policy
	// Warn receives internal failure detail with masked session ids.
	Warn func(format string, args ...any)
	// Counters receives lifecycle counts when set.
	Counters *metrics.Metrics
	// Now overrides the clock in tests.
	Now func() time.Time
}

// EstablishInput carries everything needed to create a session.
type EstablishInput struct {
	Account      AccountType
	AccessToken  string
	RefreshToken string
	// Fingerprint is the client-derived device fingerprint. Only its hash
	// is stored.
	Fingerprint string
	MFAVerified bool
}

// Coordinator owns session lifecycle: establishment, resumption with
// sliding TTL and device binding, single-flight refresh, termination.
// Safe for concurrent use.
type Coordinator struct {
	store     *Store
	cipher    *Cipher
	refresher Refresher
	policies  map[AccountType]Policy
	warn      func(format string, args ...any)
	counters  *metrics.Metrics
	now       func() time.Time

	group singleflight.Group
}

// NewCoordinator creates a session coordinator backed by the given Redis
// client. refresher may be nil when the deployment never refreshes (pure
// resume/terminate gateways).
func NewCoordinator(client redis.UniversalClient, refresher Refresher, cfg Config) (*Coordinator, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	cipher, err := NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	policies := DefaultPolicies()
	for account, policy := range cfg.Policies {
		policies[account] = policy
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		store:     NewStore(client, cfg.RedisPrefix),
		cipher:    cipher,
		refresher: refresher,
		policies:  policies,
		warn:      cfg.Warn,
		counters:  cfg.Counters,
		now:       now,
	}, nil
}

// Establish creates a new session holding the encrypted token pair and
// returns it. The caller hands the session id to the client as an httpOnly
// cookie; the tokens themselves never leave the gateway tier.
func (c *Coordinator) Establish(ctx context.Context, in EstablishInput) (*Session, error) {
	policy := c.policy(in.Account)
	if policy.RequireFingerprint && in.Fingerprint == "" {
		return nil, ErrFingerprintRequired
	}

	access, err := c.cipher.Seal(in.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := c.cipher.Seal(in.RefreshToken)
	if err != nil {
		return nil, err
	}

	now := c.now()
	sess := &Session{
		SessionID:      uuid.NewString(),
		Account:        in.Account,
		AccessToken:    access,
		RefreshToken:   refresh,
		MFAVerified:    in.MFAVerified,
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
		AbsoluteExpiry: now.Add(policy.AbsoluteLifetime).Unix(),
	}
	if in.Fingerprint != "" {
		sess.FingerprintHash = internal.HashFingerprint(in.Fingerprint)
	}

	if err := c.store.Save(ctx, sess, c.ttl(sess, policy)); err != nil {
		return nil, err
	}
	c.counters.Inc(metrics.MetricSessionEstablished)
	return sess, nil
}

// Resume loads an active session, enforces timeouts and device binding,
// bumps last activity, and returns the decrypted access token for the
// request to proceed with.
func (c *Coordinator) Resume(ctx context.Context, sessionID, fingerprint string) (*Session, string, error) {
	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	policy := c.policy(sess.Account)
	now := c.now()

	if now.Unix() >= sess.AbsoluteExpiry {
		c.counters.Inc(metrics.MetricSessionExpired)
		c.terminateQuietly(ctx, sessionID)
		return nil, "", ErrExpired
	}
	if policy.IdleTimeout > 0 && now.Sub(time.Unix(sess.LastActivityAt, 0)) > policy.IdleTimeout {
		c.counters.Inc(metrics.MetricSessionExpired)
		c.terminateQuietly(ctx, sessionID)
		return nil, "", ErrExpired
	}

	if sess.Bound() {
		if fingerprint == "" && policy.RequireFingerprint {
			c.counters.Inc(metrics.MetricSessionDeviceRejected)
			return nil, "", ErrFingerprintMismatch
		}
		if fingerprint != "" && internal.HashFingerprint(fingerprint) != sess.FingerprintHash {
			// A stolen cookie presented from another device. Kill the
			// session rather than leave it replayable.
			c.counters.Inc(metrics.MetricSessionDeviceRejected)
			c.terminateQuietly(ctx, sessionID)
			return nil, "", ErrFingerprintMismatch
		}
	}

	access, err := c.cipher.Open(sess.AccessToken)
	if err != nil {
		// Undecryptable record is indistinguishable from no record.
		c.terminateQuietly(ctx, sessionID)
		return nil, "", ErrNotFound
	}

	// Activity is bumped with an atomic touch rather than a whole-record
	// Save, so a refresh that rotated the token pair between our Get and
	// this write is never reverted to the stale ciphertexts.
	sess.LastActivityAt = now.Unix()
	if err := c.store.Touch(ctx, sessionID, sess.LastActivityAt, c.ttl(sess, policy)); err != nil {
		return nil, "", err
	}

	c.counters.Inc(metrics.MetricSessionResumed)
	return sess, access, nil
}

// Refresh rotates the session's token pair via the upstream refresher and
// returns the new access token. Concurrent calls for the same session id
// share one in-flight upstream call; every waiter observes the same
// outcome. On failure the session is terminated and all waiters receive
// [ErrReauthRequired].
func (c *Coordinator) Refresh(ctx context.Context, sessionID string) (string, error) {
	if c.refresher == nil {
		return "", ErrReauthRequired
	}

	v, err, _ := c.group.Do(sessionID, func() (any, error) {
		token, err := c.refreshOnce(ctx, sessionID)
		if err != nil {
			c.counters.Inc(metrics.MetricRefreshFailure)
			return nil, err
		}
		c.counters.Inc(metrics.MetricRefreshSuccess)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Terminate destroys a session. Terminating an absent session is not an
// error.
func (c *Coordinator) Terminate(ctx context.Context, sessionID string) error {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.counters.Inc(metrics.MetricSessionTerminated)
	return nil
}

// Store exposes the backing store for health checks.
func (c *Coordinator) Store() *Store {
	return c.store
}

func (c *Coordinator) refreshOnce(ctx context.Context, sessionID string) (string, error) {
	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		c.warnf("edgeguard: refresh load failed for session %s: %v", internal.MaskID(sessionID), err)
		return "", ErrReauthRequired
	}

	refreshPlain, err := c.cipher.Open(sess.RefreshToken)
	if err != nil {
		c.terminateQuietly(ctx, sessionID)
		return "", ErrReauthRequired
	}

	c.counters.Inc(metrics.MetricRefreshUpstreamCalls)
	pair, err := c.refresher.Refresh(ctx, refreshPlain)
	if err != nil {
		c.warnf("edgeguard: upstream refresh failed for session %s: %v", internal.MaskID(sessionID), err)
		c.terminateQuietly(ctx, sessionID)
		return "", ErrReauthRequired
	}

	access, err := c.cipher.Seal(pair.AccessToken)
	if err != nil {
		c.terminateQuietly(ctx, sessionID)
		return "", ErrReauthRequired
	}
	refresh, err := c.cipher.Seal(pair.RefreshToken)
	if err != nil {
		c.terminateQuietly(ctx, sessionID)
		return "", ErrReauthRequired
	}

	// Both tokens swap in one Save; readers observe either the old pair or
	// the new pair, never a torn record.
	sess.AccessToken = access
	sess.RefreshToken = refresh
	sess.LastActivityAt = c.now().Unix()
	if err := c.store.Save(ctx, sess, c.ttl(sess, c.policy(sess.Account))); err != nil {
		c.warnf("edgeguard: refresh persist failed for session %s: %v", internal.MaskID(sessionID), err)
		c.terminateQuietly(ctx, sessionID)
		return "", ErrReauthRequired
	}

	return pair.AccessToken, nil
}

func (c *Coordinator) policy(account AccountType) Policy {
	if p, ok := c.policies[account]; ok {
		return p
	}
	return DefaultPolicies()[AccountUser]
}

// ttl is the sliding idle window capped by the remaining absolute lifetime.
func (c *Coordinator) ttl(sess *Session, policy Policy) time.Duration {
	remaining := time.Unix(sess.AbsoluteExpiry, 0).Sub(c.now())
	if policy.IdleTimeout > 0 && policy.IdleTimeout < remaining {
		return policy.IdleTimeout
	}
	return remaining
}

func (c *Coordinator) terminateQuietly(ctx context.Context, sessionID string) {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		c.warnf("edgeguard: session delete failed for %s: %v", internal.MaskID(sessionID), err)
	}
}

func (c *Coordinator) warnf(format string, args ...any) {
	if c.warn != nil {
		c.warn(format, args...)
	}
}
