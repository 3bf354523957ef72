package caddyredirectguard

import (
	caddyadapter "github.com/philiph/caddy-redirect-guard/internal/adapters/driving/caddy"
)

// NewRedirectGuardForTest creates a RedirectGuard instance with injected dependencies.
// This constructor is intended for testing purposes only.
var NewRedirectGuardForTest = caddyadapter.NewRedirectGuardForTest
