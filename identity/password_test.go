package identity

import (
	"context"
	"errors"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/password"
)

func testHasher(t *testing.T, memory uint32) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory:      memory,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("new argon2: %v", err)
	}
	return h
}

type failingDirectory struct{ err error }

func (d failingDirectory) LookupUser(context.Context, string) (UserRecord, error) {
	return UserRecord{}, d.err
}

func TestPasswordProvider(t *testing.T) {
	h := testHasher(t, 8*1024)
	dir := NewMemoryDirectory()
	if err := dir.Add("alice", "correct-horse-battery", goSession.Identity{UserID: "u1", Username: "alice"}, h); err != nil {
		t.Fatalf("add: %v", err)
	}

	p, err := NewPassword(dir, h, false)
	if err != nil {
		t.Fatalf("new password provider: %v", err)
	}

	id, err := p.Authenticate(context.Background(), goSession.Credentials{Identifier: "alice", Secret: "correct-horse-battery"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != "u1" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	cases := []goSession.Credentials{
		{Identifier: "alice", Secret: "wrong-password-here"},
		{Identifier: "bob", Secret: "correct-horse-battery"},
		{},
	}
	for _, creds := range cases {
		_, err := p.Authenticate(context.Background(), creds)
		if !errors.Is(err, goSession.ErrInvalidCredentials) {
			t.Fatalf("creds %+v: expected ErrInvalidCredentials, got %v", creds, err)
		}
		if !errors.Is(err, goSession.ErrAuthenticationFailed) {
			t.Fatalf("creds %+v: expected ErrAuthenticationFailed in chain", creds)
		}
	}
}

func TestPasswordProviderDirectoryFailure(t *testing.T) {
	h := testHasher(t, 8*1024)

	p, err := NewPassword(failingDirectory{err: errors.New("connection reset")}, h, false)
	if err != nil {
		t.Fatalf("new password provider: %v", err)
	}
	_, err = p.Authenticate(context.Background(), goSession.Credentials{Identifier: "alice", Secret: "x"})
	if !errors.Is(err, goSession.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}

	p, _ = NewPassword(failingDirectory{err: context.DeadlineExceeded}, h, false)
	_, err = p.Authenticate(context.Background(), goSession.Credentials{Identifier: "alice", Secret: "x"})
	if !errors.Is(err, goSession.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestPasswordProviderRehashesWeakHash(t *testing.T) {
	weak := testHasher(t, 8*1024)
	strong := testHasher(t, 16*1024)

	dir := NewMemoryDirectory()
	if err := dir.Add("alice", "correct-horse-battery", goSession.Identity{UserID: "u1"}, weak); err != nil {
		t.Fatalf("add: %v", err)
	}
	before, _ := dir.LookupUser(context.Background(), "alice")

	p, err := NewPassword(dir, strong, true)
	if err != nil {
		t.Fatalf("new password provider: %v", err)
	}
	if _, err := p.Authenticate(context.Background(), goSession.Credentials{Identifier: "alice", Secret: "correct-horse-battery"}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	after, _ := dir.LookupUser(context.Background(), "alice")
	if after.PasswordHash == before.PasswordHash {
		t.Fatal("expected hash to be upgraded")
	}
	needs, err := strong.NeedsRehash(after.PasswordHash)
	if err != nil || needs {
		t.Fatalf("upgraded hash still needs rehash: %v %v", needs, err)
	}
}
