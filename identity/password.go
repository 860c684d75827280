package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/password"
)

// ErrUserNotFound is returned by a Directory for an unknown identifier.
var ErrUserNotFound = errors.New("user not found")

// UserRecord is one directory entry.
type UserRecord struct {
	Identity     goSession.Identity
	PasswordHash string
}

// Directory resolves login identifiers to users.
type Directory interface {
	LookupUser(ctx context.Context, identifier string) (UserRecord, error)
}

// HashUpdater is optionally implemented by a Directory that can store a
// rehashed password after a successful login.
type HashUpdater interface {
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// Password authenticates identifier/secret pairs against a Directory.
type Password struct {
	dir       Directory
	hasher    *password.Argon2
	dummyHash string
	upgrade   bool
}

// NewPassword returns a password provider. When upgrade is true and the
// directory implements HashUpdater, hashes made with weaker parameters are
// replaced after a successful login.
func NewPassword(dir Directory, hasher *password.Argon2, upgrade bool) (*Password, error) {
	if dir == nil {
		return nil, errors.New("identity: directory required")
	}
	if hasher == nil {
		return nil, errors.New("identity: password hasher required")
	}
	dummy, err := hasher.Hash("goSession-unknown-user")
	if err != nil {
		return nil, err
	}
	return &Password{dir: dir, hasher: hasher, dummyHash: dummy, upgrade: upgrade}, nil
}

// Authenticate verifies creds.Secret. Unknown users and wrong secrets both
// yield goSession.ErrInvalidCredentials after the same hashing work.
func (p *Password) Authenticate(ctx context.Context, creds goSession.Credentials) (goSession.Identity, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" {
		return goSession.Identity{}, goSession.ErrInvalidCredentials
	}

	user, err := p.dir.LookupUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_, _ = p.hasher.Verify(creds.Secret, p.dummyHash)
			return goSession.Identity{}, goSession.ErrInvalidCredentials
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return goSession.Identity{}, goSession.ErrTimeout
		}
		return goSession.Identity{}, fmt.Errorf("%w: %w", goSession.ErrNetworkUnavailable, err)
	}

	verdict, err := p.hasher.Check(creds.Secret, user.PasswordHash)
	if err != nil || !verdict.Match {
		return goSession.Identity{}, goSession.ErrInvalidCredentials
	}

	if p.upgrade && verdict.Rehash {
		p.rehash(ctx, user, creds.Secret)
	}

	return user.Identity, nil
}

func (p *Password) rehash(ctx context.Context, user UserRecord, secret string) {
	updater, ok := p.dir.(HashUpdater)
	if !ok {
		return
	}
	hash, err := p.hasher.Hash(secret)
	if err != nil {
		return
	}
	if err := updater.UpdatePasswordHash(ctx, user.Identity.UserID, hash); err != nil {
		log.Printf("goSession: password rehash failed for user %s: %v", user.Identity.UserID, err)
	}
}

// MemoryDirectory is an in-process Directory keyed by login identifier.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]UserRecord
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]UserRecord)}
}

// Add hashes secret with hasher and stores the user under identifier.
func (d *MemoryDirectory) Add(identifier, secret string, id goSession.Identity, hasher *password.Argon2) error {
	hash, err := hasher.Hash(secret)
	if err != nil {
		return err
	}
	d.Put(identifier, UserRecord{Identity: id, PasswordHash: hash})
	return nil
}

// Put stores rec under identifier, replacing any previous entry.
func (d *MemoryDirectory) Put(identifier string, rec UserRecord) {
	d.mu.Lock()
	d.users[identifier] = rec
	d.mu.Unlock()
}

// LookupUser returns the user stored under identifier or [ErrUserNotFound].
func (d *MemoryDirectory) LookupUser(_ context.Context, identifier string) (UserRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.users[identifier]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return rec, nil
}

// UpdatePasswordHash replaces the stored hash for userID.
func (d *MemoryDirectory) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, rec := range d.users {
		if rec.Identity.UserID == userID {
			rec.PasswordHash = hash
			d.users[k] = rec
			return nil
		}
	}
	return ErrUserNotFound
}
