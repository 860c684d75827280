package goSession

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
)

type failingPersister struct {
	err error
}

func (p failingPersister) Save(context.Context, string, *session.Record, time.Duration) error {
	return p.err
}

func (p failingPersister) Load(context.Context, string) (*session.Record, error) {
	return nil, p.err
}

func (p failingPersister) Delete(context.Context, string) error {
	return p.err
}

func ed25519Config(t *testing.T) func(*Config) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return func(c *Config) {
		c.Token.Enabled = true
		c.Token.SigningMethod = "ed25519"
		c.Token.PrivateKey = priv
		c.Token.PublicKey = pub
	}
}

// restartWith builds a second store over the same persister, as a client
// process starting up again would.
func restartWith(t *testing.T, opts testStoreOptions) *Store {
	t.Helper()
	s, _ := newTestStore(t, opts)
	return s
}

func TestRestoreFromPersisters(t *testing.T) {
	fileStore, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	_, rdb := newTestRedis(t)

	cases := []struct {
		name string
		opts func() testStoreOptions
	}{
		{"memory", func() testStoreOptions {
			mem := session.NewMemoryStore()
			return testStoreOptions{persister: mem}
		}},
		{"file", func() testStoreOptions {
			return testStoreOptions{persister: fileStore}
		}},
		{"redis", func() testStoreOptions {
			return testStoreOptions{redis: rdb}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := tc.opts()
			first, _ := newTestStore(t, opts)
			if err := first.Login(context.Background(), Credentials{Identifier: "alice"}); err != nil {
				t.Fatalf("login: %v", err)
			}
			want := first.Current().State.(Authenticated)

			second := restartWith(t, opts)
			if err := second.Restore(context.Background()); err != nil {
				t.Fatalf("restore: %v", err)
			}
			got, ok := second.Current().State.(Authenticated)
			if !ok {
				t.Fatalf("expected authenticated after restore, got %T", second.Current().State)
			}
			if got.SessionID != want.SessionID || got.User.UserID != "u1" || got.User.Username != "alice" {
				t.Fatalf("restored session mismatch: %+v vs %+v", got, want)
			}
			if !got.ExpiresAt.Equal(want.ExpiresAt) {
				t.Fatalf("expiry mismatch: %v vs %v", got.ExpiresAt, want.ExpiresAt)
			}
			if second.Current().Version != 1 {
				t.Fatalf("expected version 1 after restore, got %d", second.Current().Version)
			}
			if n := second.MetricsSnapshot().Counters[MetricSessionRestored]; n != 1 {
				t.Fatalf("expected one restore counted, got %d", n)
			}

			if err := second.Logout(context.Background()); err != nil {
				t.Fatalf("logout: %v", err)
			}
			third := restartWith(t, opts)
			if err := third.Restore(context.Background()); err != nil {
				t.Fatalf("restore after logout: %v", err)
			}
			if third.Current().Authenticated() {
				t.Fatal("logout must remove the persisted session")
			}
		})
	}
}

func TestRestoreWithoutRecordIsNoop(t *testing.T) {
	var seen int
	s, p := newTestStore(t, testStoreOptions{persister: session.NewMemoryStore()})
	defer s.Subscribe(func(Session) { seen++ })()

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Current().Authenticated() || s.Current().Version != 0 || seen != 0 {
		t.Fatalf("restore without record changed state: %+v seen=%d", s.Current(), seen)
	}
	if p.Calls() != 0 {
		t.Fatal("restore must not contact the identity provider")
	}
}

func TestRestoreWithoutPersisterIsNoop(t *testing.T) {
	s, _ := newTestStore(t, testStoreOptions{})
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Current().Authenticated() {
		t.Fatal("expected unauthenticated")
	}
}

func TestRestoreDiscardsExpiredRecord(t *testing.T) {
	fileStore, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	persisters := map[string]SessionPersister{
		"memory": session.NewMemoryStore(),
		"file":   fileStore,
	}
	for name, persister := range persisters {
		t.Run(name, func(t *testing.T) {
			clock := newTestClock()
			opts := testStoreOptions{
				persister: persister,
				clock:     clock.Now,
				mutate:    func(c *Config) { c.Session.Lifetime = time.Hour },
			}

			first, _ := newTestStore(t, opts)
			if err := first.Login(context.Background(), Credentials{}); err != nil {
				t.Fatalf("login: %v", err)
			}

			clock.Advance(2 * time.Hour)
			second := restartWith(t, opts)
			err := second.Restore(context.Background())
			if !errors.Is(err, ErrSessionExpired) {
				t.Fatalf("expected ErrSessionExpired, got %v", err)
			}
			if second.Current().Authenticated() {
				t.Fatal("expired record must not authenticate")
			}
			if _, err := persister.Load(context.Background(), "0:default"); !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("expired record must be deleted, load returned %v", err)
			}
			snap := second.MetricsSnapshot()
			if snap.Counters[MetricSessionRestoreFailed] != 1 || snap.Counters[MetricSessionExpired] != 1 {
				t.Fatalf("unexpected counters: %+v", snap.Counters)
			}
		})
	}
}

func TestRestoreExpiredFileRecordWithWallClock(t *testing.T) {
	fileStore, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	opts := testStoreOptions{
		persister: fileStore,
		mutate:    func(c *Config) { c.Session.Lifetime = 50 * time.Millisecond },
	}

	first, _ := newTestStore(t, opts)
	if err := first.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	second := restartWith(t, opts)
	if err := second.Restore(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if n := second.MetricsSnapshot().Counters[MetricSessionExpired]; n != 1 {
		t.Fatalf("expected expiry counted, got %d", n)
	}
}

func TestRestoreAfterRedisEvictionIsMiss(t *testing.T) {
	mr, rdb := newTestRedis(t)
	clock := newTestClock()
	opts := testStoreOptions{
		redis:  rdb,
		clock:  clock.Now,
		mutate: func(c *Config) { c.Session.Lifetime = time.Hour },
	}

	first, _ := newTestStore(t, opts)
	if err := first.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.Advance(2 * time.Hour)
	mr.FastForward(2 * time.Hour)
	second := restartWith(t, opts)
	if err := second.Restore(context.Background()); err != nil {
		t.Fatalf("evicted record must read as missing, got %v", err)
	}
	if second.Current().Authenticated() {
		t.Fatal("expected unauthenticated")
	}
}

func TestRestoreVerifiesToken(t *testing.T) {
	mem := session.NewMemoryStore()
	opts := testStoreOptions{persister: mem, mutate: ed25519Config(t)}

	first, _ := newTestStore(t, opts)
	if err := first.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if first.Current().State.(Authenticated).Token == "" {
		t.Fatal("expected a signed session token")
	}

	second := restartWith(t, opts)
	if err := second.Restore(context.Background()); err != nil {
		t.Fatalf("restore with valid token: %v", err)
	}
	if !second.Current().Authenticated() {
		t.Fatal("expected authenticated after restore")
	}
}

func TestRestoreRejectsTamperedRecords(t *testing.T) {
	cases := []struct {
		name   string
		tamper func(*session.Record)
	}{
		{"token signature", func(r *session.Record) {
			r.Token = r.Token[:len(r.Token)-2] + "xx"
		}},
		{"token missing", func(r *session.Record) { r.Token = "" }},
		{"session id", func(r *session.Record) { r.SessionID = "forged" }},
		{"user id", func(r *session.Record) { r.UserID = "mallory" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := session.NewMemoryStore()
			opts := testStoreOptions{persister: mem, mutate: ed25519Config(t)}

			first, _ := newTestStore(t, opts)
			if err := first.Login(context.Background(), Credentials{}); err != nil {
				t.Fatalf("login: %v", err)
			}

			key := "0:default"
			rec, err := mem.Load(context.Background(), key)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.tamper(rec)
			if err := mem.Save(context.Background(), key, rec, time.Hour); err != nil {
				t.Fatalf("save: %v", err)
			}

			second := restartWith(t, opts)
			if err := second.Restore(context.Background()); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
			if second.Current().Authenticated() {
				t.Fatal("tampered record must not authenticate")
			}
			if mem.Len() != 0 {
				t.Fatal("tampered record must be deleted")
			}
		})
	}
}

func TestRestoreTokenFromOtherKeyRejected(t *testing.T) {
	mem := session.NewMemoryStore()
	first, _ := newTestStore(t, testStoreOptions{persister: mem, mutate: ed25519Config(t)})
	if err := first.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	second := restartWith(t, testStoreOptions{persister: mem, mutate: ed25519Config(t)})
	if err := second.Restore(context.Background()); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestRestoreIsTenantScoped(t *testing.T) {
	mem := session.NewMemoryStore()
	opts := testStoreOptions{persister: mem}

	first, _ := newTestStore(t, opts)
	tenantCtx := WithTenantID(context.Background(), "acme")
	if err := first.Login(tenantCtx, Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := first.Current().State.(Authenticated).User.TenantID; got != "acme" {
		t.Fatalf("expected tenant from context, got %q", got)
	}

	other := restartWith(t, opts)
	if err := other.Restore(WithTenantID(context.Background(), "globex")); err != nil {
		t.Fatalf("restore other tenant: %v", err)
	}
	if other.Current().Authenticated() {
		t.Fatal("restore must not cross tenants")
	}

	same := restartWith(t, opts)
	if err := same.Restore(tenantCtx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !same.Current().Authenticated() {
		t.Fatal("expected restore within the same tenant")
	}
}

func TestRestoreOnAuthenticatedStoreIsNoop(t *testing.T) {
	s, _ := newTestStore(t, testStoreOptions{persister: session.NewMemoryStore()})
	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	before := s.Current()
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.Current().Version != before.Version {
		t.Fatalf("restore on authenticated store transitioned: %d -> %d", before.Version, s.Current().Version)
	}
}

func TestPersistFailureDoesNotFailLogin(t *testing.T) {
	boom := errors.New("disk full")
	s, _ := newTestStore(t, testStoreOptions{persister: failingPersister{err: boom}})

	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login must succeed when persistence fails: %v", err)
	}
	if !s.Current().Authenticated() {
		t.Fatal("expected authenticated")
	}
	if n := s.MetricsSnapshot().Counters[MetricPersistFailure]; n != 1 {
		t.Fatalf("expected one persist failure, got %d", n)
	}

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout must succeed when delete fails: %v", err)
	}
	if s.Current().Authenticated() {
		t.Fatal("expected unauthenticated after logout")
	}
}

func TestRestorePersisterFailure(t *testing.T) {
	s, _ := newTestStore(t, testStoreOptions{persister: failingPersister{err: errors.New("io")}})
	err := s.Restore(context.Background())
	if !errors.Is(err, ErrSessionPersistFailed) {
		t.Fatalf("expected ErrSessionPersistFailed, got %v", err)
	}
}

func TestPersistenceDisabledSkipsWrites(t *testing.T) {
	mem := session.NewMemoryStore()
	s, _ := newTestStore(t, testStoreOptions{
		persister: mem,
		mutate:    func(c *Config) { c.Session.PersistenceEnabled = false },
	})
	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected no persisted records, got %d", mem.Len())
	}
}

func TestRedisRecordKey(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s, _ := newTestStore(t, testStoreOptions{
		redis:  rdb,
		mutate: func(c *Config) { c.Session.Lifetime = time.Hour },
	})
	if err := s.Login(context.Background(), Credentials{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !mr.Exists("gs:0:default") {
		t.Fatalf("expected record at gs:0:default, keys: %s", strings.Join(mr.Keys(), ","))
	}
	if ttl := mr.TTL("gs:0:default"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected record ttl %v", ttl)
	}

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if mr.Exists("gs:0:default") {
		t.Fatal("logout must delete the redis record")
	}
}
