package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingProvider struct {
	mu        sync.Mutex
	calls     int
	identity  Identity
	err       error
	block     bool
	revoked   int
	revokeErr error
}

func newCountingProvider() *countingProvider {
	return &countingProvider{
		identity: Identity{UserID: "u1", Username: "alice", Role: "admin"},
	}
}

func (p *countingProvider) Authenticate(ctx context.Context, _ Credentials) (Identity, error) {
	p.mu.Lock()
	p.calls++
	id, err, block := p.identity, p.err, p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return Identity{}, ctx.Err()
	}
	if err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (p *countingProvider) Revoke(context.Context, Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked++
	return p.revokeErr
}

func (p *countingProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *countingProvider) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testStoreOptions struct {
	mutate    func(*Config)
	provider  IdentityProvider
	persister SessionPersister
	redis     redis.UniversalClient
	sink      AuditSink
	clock     func() time.Time
}

func newTestStore(t *testing.T, opts testStoreOptions) (*Store, *countingProvider) {
	t.Helper()

	cfg := DefaultConfig()
	if opts.mutate != nil {
		opts.mutate(&cfg)
	}

	counting := newCountingProvider()
	var provider IdentityProvider = counting
	if opts.provider != nil {
		provider = opts.provider
	}

	b := New().WithConfig(cfg).WithIdentityProvider(provider)
	if opts.persister != nil {
		b.WithPersister(opts.persister)
	}
	if opts.redis != nil {
		b.WithRedis(opts.redis)
	}
	if opts.sink != nil {
		b.WithAuditSink(opts.sink)
	}
	if opts.clock != nil {
		b.WithClock(opts.clock)
	}

	s, err := b.Build()
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	t.Cleanup(s.Close)
	return s, counting
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}
