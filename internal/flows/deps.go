package flows

// Principal is the flow-local view of an authenticated identity.
type Principal struct {
	UserID   string
	TenantID string
	Username string
	Role     string
}

// Deps groups flow dependency sets. The root store builds this once and
// delegates each mutation to the matching flow.
type Deps struct {
	Login   LoginDeps
	Logout  LogoutDeps
	Restore RestoreDeps
}
