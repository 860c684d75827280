package app

import (
	"context"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
)

// LoginPage is the login control. It holds no state; the store and navigator
// come from the mounted scope.
type LoginPage struct{}

// Activate logs in with creds and navigates to the dashboard. On error no
// navigation happens and the error is returned so the page can offer a retry.
func (LoginPage) Activate(ctx context.Context, creds goSession.Credentials) error {
	store, err := goSession.StoreFromContext(ctx)
	if err != nil {
		return err
	}
	nav, err := NavigatorFromContext(ctx)
	if err != nil {
		return err
	}

	if err := store.Login(ctx, creds); err != nil {
		return err
	}
	return nav.Navigate(ctx, navigation.Dashboard)
}

// LogoutAction ends the session and returns to the login page.
type LogoutAction struct{}

// Run logs out and navigates to the login page. A logout error leaves the
// route unchanged.
func (LogoutAction) Run(ctx context.Context) error {
	store, err := goSession.StoreFromContext(ctx)
	if err != nil {
		return err
	}
	nav, err := NavigatorFromContext(ctx)
	if err != nil {
		return err
	}

	if err := store.Logout(ctx); err != nil {
		return err
	}
	return nav.Navigate(ctx, navigation.Login)
}
