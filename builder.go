package edgeguard

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/beegy-labs/edgeguard/apikey"
	"github.com/beegy-labs/edgeguard/breaker"
	internalmetrics "github.com/beegy-labs/edgeguard/internal/metrics"
	"github.com/beegy-labs/edgeguard/permission"
	"github.com/beegy-labs/edgeguard/revocation"
	"github.com/beegy-labs/edgeguard/session"
	"github.com/beegy-labs/edgeguard/token"
)

// RouteDecl declares one protected route for the engine's route table.
type RouteDecl struct {
	RouteID     string
	Permissions []string
	MatchAny    bool
}

// Builder assembles an Engine. Configure during initialization, call Build
// once, and treat the result as immutable.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocationStore revocation.Store
	apiKeySource    apikey.KeySource
	refresher       session.Refresher
	auditSink       AuditSink
	warn            func(format string, args ...any)
	routes          []RouteDecl

	built bool
}

// New returns a Builder seeded with secure defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the revocation cache and session
// store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore sets the authoritative revocation lookup consulted on
// cache misses. Without a store, revocation checking is disabled entirely.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocationStore = store
	return b
}

// WithAPIKeySource sets the provider of accepted service keys.
func (b *Builder) WithAPIKeySource(source apikey.KeySource) *Builder {
	b.apiKeySource = source
	return b
}

// WithRefresher sets the upstream credential refresher used by the session
// coordinator.
func (b *Builder) WithRefresher(r session.Refresher) *Builder {
	b.refresher = r
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithWarnFunc sets the operator warning hook. It receives printf-style
// diagnostics for degraded-mode decisions.
func (b *Builder) WithWarnFunc(fn func(format string, args ...any)) *Builder {
	b.warn = fn
	return b
}

// WithRoutes declares the protected routes registered into the engine's
// table before it freezes.
func (b *Builder) WithRoutes(routes ...RouteDecl) *Builder {
	b.routes = append(b.routes, routes...)
	return b
}

// Build validates the accumulated configuration and constructs the Engine.
//
// Build may only be called once per Builder. In production mode the
// builder refuses insecure assemblies: revocation without a store, API key
// auth without a key source, and fail-open without an explicit warning
// hook all fail fast here rather than at request time.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	production := cfg.Mode == ModeProduction

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if production && b.revocationStore == nil {
		return nil, errors.New("production mode requires a revocation store")
	}
	if cfg.APIKey.Enabled && b.apiKeySource == nil {
		return nil, errors.New("api key auth enabled without a key source")
	}

	engine := &Engine{
		cfg:  cfg,
		warn: b.warn,
	}

	if production && cfg.Revocation.Policy == FailOpen {
		engine.warnf("edgeguard: fail-open revocation policy active in production mode")
	}

	/* ==== TOKEN VERIFIER ==== */
	verifier, err := token.NewVerifier(token.Config{
		HMACSecret:       cloneBytes(cfg.Token.HMACSecret),
		Ed25519PublicKey: cloneBytes(cfg.Token.Ed25519PublicKey),
		Issuer:           cfg.Token.Issuer,
		Audience:         cfg.Token.Audience,
		ProductionMode:   production,
		Warn:             b.warn,
	})
	if err != nil {
		return nil, err
	}
	engine.verifier = verifier

	/* ==== ROUTE TABLE ==== */
	table := permission.NewRouteTable()
	for _, r := range b.routes {
		if err := table.Declare(r.RouteID, permission.Requirement{
			Permissions: r.Permissions,
			MatchAny:    r.MatchAny,
		}); err != nil {
			return nil, err
		}
	}
	table.Freeze()
	engine.routes = table

	/* ==== REVOCATION ==== */
	if b.revocationStore != nil {
		checker, err := revocation.NewChecker(b.redis, b.revocationStore, revocation.Config{
			CacheTTL:    cfg.Revocation.CacheTTL,
			CachePrefix: cfg.Revocation.CachePrefix,
			Breaker: breaker.Config{
				FailureThreshold: cfg.Revocation.FailureThreshold,
				SuccessThreshold: cfg.Revocation.SuccessThreshold,
				ResetTimeout:     cfg.Revocation.ResetTimeout,
			},
			Warn: b.warn,
		})
		if err != nil {
			return nil, err
		}
		engine.revoker = checker
	}

	/* ==== API KEYS ==== */
	if cfg.APIKey.Enabled {
		validator, err := apikey.NewValidator(context.Background(), b.apiKeySource, apikey.Config{
			RefreshInterval: cfg.APIKey.RefreshInterval,
			ProductionMode:  production,
			Warn:            b.warn,
		})
		if err != nil {
			return nil, err
		}
		engine.apiKeys = validator
	}

	engine.metrics = internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})

	/* ==== SESSIONS ==== */
	if len(cfg.Session.EncryptionKey) > 0 {
		coordinator, err := session.NewCoordinator(b.redis, b.refresher, session.Config{
			EncryptionKey: cloneBytes(cfg.Session.EncryptionKey),
			RedisPrefix:   cfg.Session.RedisPrefix,
			Policies:      cfg.Session.Policies,
			Warn:          b.warn,
			Counters:      engine.metrics,
		})
		if err != nil {
			return nil, err
		}
		engine.coordinator = coordinator
	}

	engine.dispatcher = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true

	return engine, nil
}
