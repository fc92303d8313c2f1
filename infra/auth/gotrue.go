package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/CrestNiraj12/feedsync/domain"
)

// GoTrue talks to the Supabase auth endpoints.
type GoTrue struct {
	client    gotrue.Client
	transport http.RoundTripper
	timeout   time.Duration
	now       func() time.Time
}

// NewGoTrue creates an auth client for the project at baseURL.
func NewGoTrue(baseURL, anonKey string) *GoTrue {
	base := strings.TrimRight(baseURL, "/")
	return &GoTrue{
		// The project reference only builds the default URL, which is replaced.
		client:  gotrue.New("", anonKey).WithCustomGoTrueURL(base + "/auth/v1"),
		timeout: 15 * time.Second,
		now:     time.Now,
	}
}

// SignInWithPassword exchanges email and password for a session.
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, errors.New("email and password are required")
	}
	return g.token(ctx, types.TokenRequest{GrantType: "password", Email: email, Password: password})
}

// Refresh trades a refresh token for a new session.
func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, fmt.Errorf("%w: no refresh token", domain.ErrUnauthorized)
	}
	return g.token(ctx, types.TokenRequest{GrantType: "refresh_token", RefreshToken: refreshToken})
}

// SignOut revokes the session on the server.
func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	c, rt, cancel := g.bind(ctx)
	defer cancel()

	if err := c.WithToken(accessToken).Logout(); err != nil {
		if rt.status == http.StatusUnauthorized {
			return nil // already invalid
		}
		return fmt.Errorf("signing out: %w", err)
	}
	return nil
}

func (g *GoTrue) token(ctx context.Context, req types.TokenRequest) (Session, error) {
	c, rt, cancel := g.bind(ctx)
	defer cancel()

	tr, err := c.Token(req)
	if err != nil {
		if rt.status == http.StatusBadRequest || rt.status == http.StatusUnauthorized {
			return Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
		return Session{}, fmt.Errorf("requesting %s token: %w", req.GrantType, err)
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return Session{}, errors.New("token response missing access token")
	}

	s := Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.User.ID != uuid.Nil {
		s.UserID = tr.User.ID.String()
	}
	switch {
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		s.ExpiresAt = g.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if claims, err := ParseAccessToken(tr.AccessToken); err == nil {
		if s.UserID == "" {
			s.UserID = claims.Subject
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = claims.ExpiresAt
		}
	}
	return s, nil
}

// bind returns a client whose requests carry ctx and report their status.
func (g *GoTrue) bind(ctx context.Context) (gotrue.Client, *statusTransport, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	rt := &statusTransport{ctx: ctx, base: g.transport}
	return g.client.WithClient(http.Client{Transport: rt}), rt, cancel
}

// statusTransport attaches a context to each request and keeps the last
// response status, which the auth client only reports as text.
type statusTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req.WithContext(t.ctx))
	if resp != nil {
		t.status = resp.StatusCode
	}
	return resp, err
}
