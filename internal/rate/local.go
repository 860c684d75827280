package rate

import (
	"context"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// Local is an in-process login limiter. Each identifier and IP gets a token
// bucket holding MaxLoginAttempts tokens that refills fully over the cooldown.
// A failure spends one token; an empty bucket rejects further logins.
type Local struct {
	mu       sync.Mutex
	config   Config
	limit    xrate.Limit
	limiters map[string]*xrate.Limiter
	now      func() time.Time
}

// NewLocal creates an in-memory [Local] limiter.
func NewLocal(cfg Config) *Local {
	limit := xrate.Inf
	if cfg.MaxLoginAttempts > 0 && cfg.LoginCooldownDuration > 0 {
		limit = xrate.Every(cfg.LoginCooldownDuration / time.Duration(cfg.MaxLoginAttempts))
	}
	return &Local{
		config:   cfg,
		limit:    limit,
		limiters: make(map[string]*xrate.Limiter),
		now:      time.Now,
	}
}

func (l *Local) CheckLogin(_ context.Context, identifier, ip string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range l.keys(identifier, ip) {
		lim, ok := l.limiters[key]
		if ok && lim.TokensAt(now) < 1 {
			return ErrRateLimited
		}
	}
	return nil
}

func (l *Local) IncrementLogin(_ context.Context, identifier, ip string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	limited := false
	for _, key := range l.keys(identifier, ip) {
		lim, ok := l.limiters[key]
		if !ok {
			lim = xrate.NewLimiter(l.limit, l.config.MaxLoginAttempts)
			l.limiters[key] = lim
		}
		if !lim.AllowN(now, 1) || lim.TokensAt(now) < 1 {
			limited = true
		}
	}

	if limited {
		return ErrRateLimited
	}
	return nil
}

func (l *Local) ResetLogin(_ context.Context, identifier, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, key := range l.keys(identifier, ip) {
		delete(l.limiters, key)
	}
	return nil
}

func (l *Local) keys(identifier, ip string) []string {
	keys := []string{"u:" + normalizeIdentifier(identifier)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, "ip:"+ip)
	}
	return keys
}
