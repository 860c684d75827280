package goSession_test

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/session"
)

// ExampleNew builds a store with a fixed identity and in-memory persistence.
func ExampleNew() {
	store, err := goSession.New().
		WithIdentityProvider(identity.NewStatic(goSession.Identity{UserID: "u1", Username: "alice"})).
		WithPersister(session.NewMemoryStore()).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer store.Close()

	fmt.Println(store.Current().Authenticated())
	// Output: false
}

// ExampleStore_Login shows the login transition and a subscriber observing it.
func ExampleStore_Login() {
	store, _ := goSession.New().
		WithIdentityProvider(identity.NewStatic(goSession.Identity{UserID: "u1", Username: "alice"})).
		Build()
	defer store.Close()

	unsubscribe := store.Subscribe(func(s goSession.Session) {
		if user, ok := s.User(); ok {
			fmt.Println("signed in:", user.Username)
			return
		}
		fmt.Println("signed out")
	})
	defer unsubscribe()

	ctx := context.Background()
	_ = store.Login(ctx, goSession.Credentials{})
	_ = store.Login(ctx, goSession.Credentials{})
	_ = store.Logout(ctx)
	// Output:
	// signed in: alice
	// signed out
}

// ExampleStore_Login_errors shows structured error handling.
func ExampleStore_Login_errors() {
	store, _ := goSession.New().
		WithIdentityProvider(identity.Func(func(context.Context, goSession.Credentials) (goSession.Identity, error) {
			return goSession.Identity{}, goSession.ErrInvalidCredentials
		})).
		Build()
	defer store.Close()

	err := store.Login(context.Background(), goSession.Credentials{Identifier: "alice", Secret: "wrong"})
	switch {
	case errors.Is(err, goSession.ErrInvalidCredentials):
		fmt.Println("wrong username or password")
	case errors.Is(err, goSession.ErrAuthenticationFailed):
		fmt.Println("try again later")
	}
	// Output: wrong username or password
}

// ExampleStore_MetricsSnapshot shows how to read in-process counters.
func ExampleStore_MetricsSnapshot() {
	store, _ := goSession.New().
		WithIdentityProvider(identity.NewStatic(goSession.Identity{UserID: "u1"})).
		Build()
	defer store.Close()

	_ = store.Login(context.Background(), goSession.Credentials{})
	snapshot := store.MetricsSnapshot()
	fmt.Println(snapshot.Counters[goSession.MetricLoginSuccess])
	// Output: 1
}
