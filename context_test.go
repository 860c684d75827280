package goSession

import (
	"context"
	"errors"
	"testing"
)

func TestStoreFromContext(t *testing.T) {
	if _, err := StoreFromContext(context.Background()); !errors.Is(err, ErrNoStoreInScope) {
		t.Fatalf("expected ErrNoStoreInScope, got %v", err)
	}

	s, _ := newTestStore(t, testStoreOptions{})
	ctx := WithStore(context.Background(), s)
	got, err := StoreFromContext(ctx)
	if err != nil || got != s {
		t.Fatalf("expected store from context, got %v %v", got, err)
	}

	derived, cancel := context.WithCancel(ctx)
	defer cancel()
	if MustStoreFromContext(derived) != s {
		t.Fatal("derived context must share the store")
	}
}

func TestMustStoreFromContextPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic without a store in scope")
		}
	}()
	MustStoreFromContext(context.Background())
}

func TestRequestContextValues(t *testing.T) {
	if TenantIDFromContext(context.Background()) != "0" {
		t.Fatal("expected default tenant")
	}

	ctx := WithTenantID(context.Background(), "acme")
	ctx = WithClientIP(ctx, "192.0.2.1")
	ctx = WithUserAgent(ctx, "kiosk/1.0")

	if got := TenantIDFromContext(ctx); got != "acme" {
		t.Fatalf("tenant = %q", got)
	}
	if got := clientIPFromContext(ctx); got != "192.0.2.1" {
		t.Fatalf("client ip = %q", got)
	}
	if got := userAgentFromContext(ctx); got != "kiosk/1.0" {
		t.Fatalf("user agent = %q", got)
	}
	if TenantIDFromContext(WithTenantID(context.Background(), "")) != "0" {
		t.Fatal("empty tenant must fall back to default")
	}
}
