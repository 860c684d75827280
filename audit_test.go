package goSession

import (
	"context"
	"errors"
	"testing"
	"time"
)

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func auditConfig(buffer int, dropIfFull bool) func(*Config) {
	return func(c *Config) {
		c.Audit.Enabled = true
		c.Audit.BufferSize = buffer
		c.Audit.DropIfFull = dropIfFull
	}
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditLifecycleEvents(t *testing.T) {
	sink := NewChannelSink(16)
	s, p := newTestStore(t, testStoreOptions{sink: sink, mutate: auditConfig(16, false)})

	ctx := WithUserAgent(WithClientIP(context.Background(), "10.1.2.3"), "test-agent")

	p.setErr(ErrInvalidCredentials)
	_ = s.Login(ctx, Credentials{Identifier: "alice"})
	p.setErr(nil)
	if err := s.Login(ctx, Credentials{Identifier: "alice"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	failure := nextEvent(t, sink)
	if failure.EventType != AuditLoginFailure || failure.Success {
		t.Fatalf("expected login failure, got %+v", failure)
	}
	if failure.Error != "invalid_credentials" || failure.Metadata["identifier"] != "alice" {
		t.Fatalf("unexpected failure detail: %+v", failure)
	}
	if failure.IP != "10.1.2.3" || failure.UserAgent != "test-agent" {
		t.Fatalf("request metadata not carried: %+v", failure)
	}

	success := nextEvent(t, sink)
	if success.EventType != AuditLoginSuccess || !success.Success || success.UserID != "u1" || success.SessionID == "" {
		t.Fatalf("unexpected login success event: %+v", success)
	}
	if success.TenantID != "0" {
		t.Fatalf("expected default tenant, got %q", success.TenantID)
	}

	logout := nextEvent(t, sink)
	if logout.EventType != AuditLogout || !logout.Success || logout.SessionID != success.SessionID {
		t.Fatalf("unexpected logout event: %+v", logout)
	}
}

func TestAuditRevokeFailureStillLogsOut(t *testing.T) {
	sink := NewChannelSink(8)
	s, p := newTestStore(t, testStoreOptions{sink: sink, mutate: auditConfig(8, false)})
	p.revokeErr = errors.New("upstream down")

	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_ = nextEvent(t, sink)
	logout := nextEvent(t, sink)
	if logout.EventType != AuditLogout || logout.Success || logout.Error != "revoke_failed" {
		t.Fatalf("unexpected logout event: %+v", logout)
	}
}

func TestAuditDropIfFull(t *testing.T) {
	sink := newGateSink()
	s, p := newTestStore(t, testStoreOptions{
		sink: sink,
		mutate: func(c *Config) {
			auditConfig(1, true)(c)
			c.Security.EnableLoginThrottle = false
		},
	})
	t.Cleanup(func() { close(sink.gate) })
	p.setErr(ErrInvalidCredentials)

	for i := 0; i < 10; i++ {
		_ = s.Login(context.Background(), Credentials{Identifier: "alice"})
	}
	if s.AuditDropped() == 0 {
		t.Fatal("expected dropped audit events with a blocked sink")
	}
}

func TestAuditDisabledDropsNothing(t *testing.T) {
	s, _ := newTestStore(t, testStoreOptions{})
	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.AuditDropped() != 0 {
		t.Fatalf("expected no drops with audit disabled, got %d", s.AuditDropped())
	}
}

func TestAuditErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrLoginRateLimited, auditErrRateLimited},
		{ErrTimeout, auditErrTimeout},
		{ErrNetworkUnavailable, auditErrUnavailable},
		{ErrSessionExpired, auditErrSessionExpired},
		{ErrTokenInvalid, auditErrInvalidToken},
		{errors.Join(ErrSessionPersistFailed, errors.New("io")), auditErrPersistFailed},
		{errRevokeFailed, auditErrRevokeFailed},
		{errors.New("other"), auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestAuditPersistFailureOnLogin(t *testing.T) {
	sink := NewChannelSink(8)
	s, _ := newTestStore(t, testStoreOptions{
		sink:      sink,
		persister: failingPersister{err: errors.New("disk full")},
		mutate:    auditConfig(8, false),
	})

	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	failed := nextEvent(t, sink)
	if failed.EventType != AuditPersistFailed || failed.Success || failed.Error != "persist_failed" {
		t.Fatalf("unexpected persist event: %+v", failed)
	}
	if ok := nextEvent(t, sink); ok.EventType != AuditLoginSuccess {
		t.Fatalf("expected login success after persist failure, got %+v", ok)
	}
}
