package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider supplies an access token for API authentication.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Session is a signed-in GoTrue session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
}

// Expired reports whether the access token is past, or within skew of,
// its expiry.
func (s Session) Expired(now time.Time, skew time.Duration) bool {
	return !s.ExpiresAt.IsZero() && !now.Add(skew).Before(s.ExpiresAt)
}

// Claims are the access-token fields the client relies on.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Role      string
}

type supabaseClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessToken reads the claims of a Supabase access token. The
// signature is not checked: the server verifies every request, and the
// client only needs the viewer ID and expiry.
func ParseAccessToken(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, errors.New("empty access token")
	}

	var c supabaseClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("parsing access token: %w", err)
	}
	if c.Subject == "" {
		return Claims{}, errors.New("access token has no subject")
	}

	out := Claims{Subject: c.Subject, Role: c.Role}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// StaticTokenProvider always returns the same token. The anon key is used
// this way before sign-in.
type StaticTokenProvider string

func (s StaticTokenProvider) AccessToken(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("no access token configured")
	}
	return string(s), nil
}
