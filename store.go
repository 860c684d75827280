package goSession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

var errRevokeFailed = errors.New("upstream revoke failed")

type loginLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier, ip string) error
}

// Store holds the authentication state of one client. It is created
// Unauthenticated by [Builder.Build] and is safe for concurrent use.
//
// Reads through [Store.Current] never block. Mutations are serialized, and
// every listener has observed a transition before the mutating call returns.
type Store struct {
	config    Config
	provider  IdentityProvider
	persister SessionPersister
	limiter   loginLimiter
	tokens    *jwt.Manager
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	flows flows.Deps

	mu     sync.Mutex
	state  atomic.Pointer[Session]
	closed atomic.Bool
	// expired is an Authenticated session a reader published as expired,
	// waiting for a mutation to clean it up and notify listeners.
	expired atomic.Pointer[expiredSession]

	listenersMu    sync.Mutex
	listeners      []listenerEntry
	nextListenerID uint64
}

type expiredSession struct {
	session Authenticated
	version uint64
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Config returns a copy of the configuration the store was built with.
func (s *Store) Config() Config {
	if s == nil {
		return defaultConfig()
	}
	return cloneConfig(s.config)
}

// Close drains the audit dispatcher. Later mutations fail with [ErrStoreClosed];
// Current keeps returning the last state.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (s *Store) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the store counters.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

func (s *Store) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

/*
====================================
READ ACCESS
====================================
*/

// Current returns the session visible to every consumer of s. An
// Authenticated session past its ExpiresAt is replaced by Unauthenticated
// under the next Version, so every consumer sees the same state for a
// Version. Listeners hear about the expiry from the next mutation or
// [Store.Refresh].
func (s *Store) Current() Session {
	if s == nil {
		return *unauthenticatedSession(0)
	}
	cur := s.observe()
	if cur == nil {
		return *unauthenticatedSession(0)
	}
	if a, ok := cur.State.(Authenticated); ok {
		a.User = a.User.clone()
		return Session{State: a, Version: cur.Version}
	}
	return *cur
}

// observe returns the published session, first publishing Unauthenticated
// over an Authenticated session whose lifetime has elapsed.
func (s *Store) observe() *Session {
	for {
		cur := s.state.Load()
		if cur == nil {
			return nil
		}
		a, ok := cur.State.(Authenticated)
		if !ok || !a.Expired(s.now()) {
			return cur
		}
		next := unauthenticatedSession(cur.Version + 1)
		if s.state.CompareAndSwap(cur, next) {
			s.expired.Store(&expiredSession{session: a, version: next.Version})
			return next
		}
	}
}

// Subscribe registers l for every later transition. Listeners run
// synchronously in subscription order. The returned func unsubscribes and is
// safe to call more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	if s == nil || l == nil {
		return func() {}
	}

	s.listenersMu.Lock()
	s.nextListenerID++
	id := s.nextListenerID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

/*
====================================
MUTATIONS
====================================
*/

// Login authenticates creds with the identity provider and moves the store
// to Authenticated. When the store is already Authenticated, Login returns
// nil without contacting the provider or notifying listeners.
//
// Failures leave the state unchanged and match [ErrAuthenticationFailed]
// or one of its refinements with errors.Is.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.settleLocked(ctx)
	if s.state.Load().Authenticated() {
		s.metricInc(MetricLoginNoop)
		return nil
	}

	var ident Identity
	in := flows.LoginInput{
		Identifier: creds.Identifier,
		IP:         clientIPFromContext(ctx),
		Authenticate: func(actx context.Context) (flows.Principal, error) {
			id, err := s.provider.Authenticate(actx, creds)
			if err != nil {
				return flows.Principal{}, err
			}
			if id.TenantID == "" {
				id.TenantID = TenantIDFromContext(ctx)
			}
			ident = id.clone()
			return principalOf(ident), nil
		},
	}

	res := flows.RunLogin(ctx, in, s.flows.Login)
	if s.metrics != nil && res.Called {
		s.metrics.Observe(MetricLoginLatency, res.Latency)
	}

	if res.Err != nil {
		if res.RateLimited || errors.Is(res.Err, ErrLoginRateLimited) {
			s.metricInc(MetricLoginRateLimited)
			s.emitAudit(ctx, AuditLoginRateLimited, false, "", "", "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{"identifier": creds.Identifier}
			})
		}
		if !errors.Is(res.Err, ErrLoginRateLimited) {
			s.metricInc(MetricLoginFailure)
			s.emitAudit(ctx, AuditLoginFailure, false, "", "", "", res.Err, func() map[string]string {
				return map[string]string{"identifier": creds.Identifier}
			})
		}
		return res.Err
	}

	rec := res.Record
	if res.PersistErr != nil {
		s.logf("goSession: session persist failed: %v", res.PersistErr)
		s.metricInc(MetricPersistFailure)
		s.emitAudit(ctx, AuditPersistFailed, false, rec.UserID, rec.TenantID, rec.SessionID,
			fmt.Errorf("%w: %w", ErrSessionPersistFailed, res.PersistErr), nil)
	}

	a := authenticatedFromRecord(ident, rec)
	a.IssuedAt = res.IssuedAt
	a.ExpiresAt = res.ExpiresAt
	s.transitionLocked(a)
	s.metricInc(MetricLoginSuccess)
	s.emitAudit(ctx, AuditLoginSuccess, true, rec.UserID, rec.TenantID, rec.SessionID, nil, nil)
	return nil
}

// Logout moves the store to Unauthenticated. It removes the persisted record
// and revokes the upstream session when the provider supports it; failures
// of either are logged and audited but never keep the client logged in.
// Logout on an Unauthenticated store is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.settleLocked(ctx)
	a, ok := s.state.Load().State.(Authenticated)
	if !ok {
		s.metricInc(MetricLogoutNoop)
		return nil
	}

	deps := s.flows.Logout
	if r, ok := s.provider.(Revoker); ok {
		user := a.User.clone()
		deps.Revoke = func(rctx context.Context, _ flows.Principal) error {
			return r.Revoke(rctx, user)
		}
	}
	res := flows.RunLogout(ctx, principalOf(a.User), deps)
	if res.PersistErr != nil && !errors.Is(res.PersistErr, session.ErrNotFound) {
		s.logf("goSession: session delete failed: %v", res.PersistErr)
		s.metricInc(MetricPersistFailure)
		s.emitAudit(ctx, AuditPersistFailed, false, a.User.UserID, a.User.TenantID, a.SessionID,
			fmt.Errorf("%w: %w", ErrSessionPersistFailed, res.PersistErr), nil)
	}
	if res.RevokeErr != nil {
		s.logf("goSession: upstream revoke failed: %v", res.RevokeErr)
	}

	s.transitionLocked(Unauthenticated{})
	s.metricInc(MetricLogout)

	var revokeErr error
	if res.RevokeErr != nil {
		revokeErr = errRevokeFailed
	}
	s.emitAudit(ctx, AuditLogout, revokeErr == nil, a.User.UserID, a.User.TenantID, a.SessionID, revokeErr, nil)
	return nil
}

// Restore re-establishes a persisted session without contacting the identity
// provider. The record is looked up for the tenant in ctx.
//
// A missing record returns nil and leaves the state unchanged. An expired
// record or one whose token fails verification is deleted, and Restore
// returns [ErrSessionExpired] or [ErrTokenInvalid]. Restore on an
// Authenticated store is a no-op.
func (s *Store) Restore(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if s.persister == nil || !s.config.Session.PersistenceEnabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.settleLocked(ctx)
	if s.state.Load().Authenticated() {
		return nil
	}

	deps := s.flows.Restore
	deps.Key = s.persistKey(TenantIDFromContext(ctx))
	res := flows.RunRestore(ctx, deps)
	if res.Err != nil {
		s.metricInc(MetricSessionRestoreFailed)
		if errors.Is(res.Err, ErrSessionExpired) {
			s.metricInc(MetricSessionExpired)
		}
		if errors.Is(res.Err, ErrSessionPersistFailed) {
			s.logf("goSession: session restore failed: %v", res.Err)
		}
		s.emitAudit(ctx, AuditSessionRestoreFailed, false, "", "", "", res.Err, nil)
		return res.Err
	}
	if !res.Found {
		return nil
	}

	rec := res.Record
	ident := Identity{
		UserID:   res.Principal.UserID,
		TenantID: res.Principal.TenantID,
		Username: res.Principal.Username,
		Role:     res.Principal.Role,
	}
	s.transitionLocked(authenticatedFromRecord(ident, rec))
	s.metricInc(MetricSessionRestored)
	s.emitAudit(ctx, AuditSessionRestored, true, rec.UserID, rec.TenantID, rec.SessionID, nil, nil)
	return nil
}

// Refresh collects an Authenticated session whose lifetime has elapsed,
// moving the store to Unauthenticated and notifying listeners. It returns
// [ErrSessionExpired] when it collected a session and nil otherwise.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrStoreClosed
	}

	if !s.settleLocked(ctx) {
		return nil
	}
	return ErrSessionExpired
}

/*
====================================
INTERNALS
====================================
*/

func (s *Store) ready() error {
	if s == nil || s.provider == nil || s.state.Load() == nil {
		return ErrStoreNotReady
	}
	return nil
}

// settleLocked publishes a pending expiry, removes the expired session's
// persisted record and notifies listeners. It reports whether it collected
// a session. Callers hold s.mu.
func (s *Store) settleLocked(ctx context.Context) bool {
	s.observe()
	pending := s.expired.Swap(nil)
	cur := s.state.Load()
	if pending == nil || pending.version != cur.Version {
		return false
	}

	a := pending.session
	res := flows.RunLogout(ctx, principalOf(a.User), flows.LogoutDeps{
		PersistEnabled: s.flows.Logout.PersistEnabled,
		PersistKey:     s.flows.Logout.PersistKey,
		Persister:      s.flows.Logout.Persister,
	})
	if res.PersistErr != nil && !errors.Is(res.PersistErr, session.ErrNotFound) {
		s.logf("goSession: expired session delete failed: %v", res.PersistErr)
		s.metricInc(MetricPersistFailure)
	}
	s.notifyLocked(cur)
	s.metricInc(MetricSessionExpired)
	s.emitAudit(ctx, AuditSessionExpired, true, a.User.UserID, a.User.TenantID, a.SessionID, ErrSessionExpired, nil)
	return true
}

// transitionLocked publishes next and notifies listeners. Callers hold s.mu.
func (s *Store) transitionLocked(next SessionState) {
	for {
		prev := s.state.Load()
		sess := &Session{State: next, Version: prev.Version + 1}
		if s.state.CompareAndSwap(prev, sess) {
			s.notifyLocked(sess)
			return
		}
	}
}

func (s *Store) notifyLocked(sess *Session) {
	s.listenersMu.Lock()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		view := *sess
		if a, ok := view.State.(Authenticated); ok {
			a.User = a.User.clone()
			view.State = a
		}
		l.fn(view)
	}
	if s.metrics != nil && len(listeners) > 0 {
		s.metrics.Add(MetricListenerNotified, uint64(len(listeners)))
	}
}

func (s *Store) persistKey(tenantID string) string {
	if tenantID == "" {
		tenantID = "0"
	}
	return tenantID + ":" + s.config.Session.ClientKey
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (s *Store) issueToken(p flows.Principal, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	return s.tokens.CreateSession(jwt.Subject{
		UserID:    p.UserID,
		TenantID:  p.TenantID,
		Username:  p.Username,
		Role:      p.Role,
		SessionID: sessionID,
	}, issuedAt, expiresAt)
}

func (s *Store) verifyToken(token string, want flows.Principal, sessionID string) error {
	_, err := s.tokens.VerifySession(token, jwt.Subject{
		UserID:    want.UserID,
		TenantID:  want.TenantID,
		SessionID: sessionID,
	})
	return err
}

func principalOf(id Identity) flows.Principal {
	return flows.Principal{
		UserID:   id.UserID,
		TenantID: id.TenantID,
		Username: id.Username,
		Role:     id.Role,
	}
}

func authenticatedFromRecord(id Identity, rec *session.Record) Authenticated {
	a := Authenticated{
		User:      id,
		SessionID: rec.SessionID,
		Token:     rec.Token,
		IssuedAt:  time.UnixMilli(rec.CreatedAt),
	}
	if rec.ExpiresAt > 0 {
		a.ExpiresAt = time.UnixMilli(rec.ExpiresAt)
	}
	return a
}

func isRateLimited(err error) bool {
	return errors.Is(err, rate.ErrRateLimited)
}
