package app

import "context"

// AuthService reports who is signed in. Sign-in itself happens elsewhere.
type AuthService interface {
	// CurrentUserID returns the viewer's user ID, or "" when signed out.
	CurrentUserID(ctx context.Context) (string, error)
}
