package goSession

import (
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Store]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider  IdentityProvider
	persister SessionPersister
	auditSink AuditSink
	logger    *log.Logger
	now       func() time.Time

	built bool
}

// New returns a builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The builder keeps a copy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityProvider sets the provider Login authenticates against. Required.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithRedis backs persistence and login throttling with client. An explicit
// [Builder.WithPersister] still takes precedence for persistence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPersister sets the backend that keeps sessions across restarts.
func (b *Builder) WithPersister(p SessionPersister) *Builder {
	b.persister = p
	return b
}

// WithAuditSink sets the sink audit events are dispatched to. Audit.Enabled
// must also be set for events to be emitted.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger routes best-effort failure logs to logger instead of the
// standard logger.
func (b *Builder) WithLogger(logger *log.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the store clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and returns an Unauthenticated store.
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	store := &Store{
		config:   cfg,
		provider: b.provider,
		logger:   b.logger,
		now:      now,
		newID:    uuid.NewString,
	}

	// -------- PERSISTENCE --------
	store.persister = b.persister
	if store.persister == nil && b.redis != nil {
		store.persister = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	// -------- LOGIN THROTTLE --------
	if cfg.Security.EnableLoginThrottle {
		rc := rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
			KeyPrefix:             cfg.Session.RedisPrefix,
		}
		if b.redis != nil {
			store.limiter = rate.New(b.redis, rc)
		} else {
			store.limiter = rate.NewLocal(rc)
		}
	}

	// -------- SESSION TOKENS --------
	if cfg.Token.Enabled {
		jm, err := jwt.NewManager(jwt.Config{
			SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
			PublicKey:     cloneBytes(cfg.Token.PublicKey),
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
			KeyID:         cfg.Token.KeyID,
			TimeFunc:      now,
		})
		if err != nil {
			return nil, err
		}
		store.tokens = jm
	}

	store.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	store.metrics = NewMetrics(cfg.Metrics)

	store.flows = buildFlowDeps(store)
	store.state.Store(unauthenticatedSession(0))

	b.built = true

	return store, nil
}

func buildFlowDeps(s *Store) flows.Deps {
	persistEnabled := s.config.Session.PersistenceEnabled && s.persister != nil
	persistKey := func(p flows.Principal) string {
		return s.persistKey(p.TenantID)
	}

	var persister flows.Persister
	if s.persister != nil {
		persister = s.persister
	}

	login := flows.LoginDeps{
		Timeout:         s.config.Security.LoginTimeout,
		ThrottleEnabled: s.limiter != nil,
		Lifetime:        s.config.Session.Lifetime,
		PersistEnabled:  persistEnabled,
		Now:             s.now,
		NewID:           s.newID,
		IsRateLimited:   isRateLimited,
		PersistKey:      persistKey,
		Persister:       persister,
		Errors: flows.LoginErrors{
			AuthenticationFailed: ErrAuthenticationFailed,
			InvalidCredentials:   ErrInvalidCredentials,
			NetworkUnavailable:   ErrNetworkUnavailable,
			Timeout:              ErrTimeout,
			RateLimited:          ErrLoginRateLimited,
		},
	}
	if s.limiter != nil {
		login.CheckLoginRate = s.limiter.CheckLogin
		login.IncrementLoginRate = s.limiter.IncrementLogin
		login.ResetLoginRate = s.limiter.ResetLogin
	}

	restore := flows.RestoreDeps{
		Persister: persister,
		Now:       s.now,
		Errors: flows.RestoreErrors{
			SessionExpired: ErrSessionExpired,
			TokenInvalid:   ErrTokenInvalid,
			PersistFailed:  ErrSessionPersistFailed,
		},
	}

	if s.tokens != nil {
		login.IssueToken = s.issueToken
		restore.VerifyToken = s.verifyToken
	}

	return flows.Deps{
		Login: login,
		Logout: flows.LogoutDeps{
			PersistEnabled: persistEnabled,
			PersistKey:     persistKey,
			Persister:      persister,
		},
		Restore: restore,
	}
}
