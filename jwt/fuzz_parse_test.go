package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

// FuzzJWTParseSession exercises the token parser with arbitrary strings.
// Goal: no panics; invalid inputs must be rejected with errors.
func FuzzJWTParseSession(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	mgr, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "fuzz-test",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub},
	})
	if err != nil {
		f.Fatal(err)
	}

	now := time.Now()
	valid, err := mgr.CreateSession(Subject{UserID: "u1", SessionID: "s1"}, now, now.Add(time.Hour))
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")
	if len(valid) > 20 {
		f.Add(valid[:len(valid)-5])
	}

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := mgr.ParseSession(token)
		if err != nil {
			return
		}
		if claims.UID == "" || claims.SID == "" {
			t.Fatalf("parsed claims missing uid/sid: %+v", claims)
		}
	})
}
