package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/CrestNiraj12/feedsync/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func withMockDefaultTransport(t *testing.T, rt roundTripFunc) {
	t.Helper()
	prev := http.DefaultTransport
	http.DefaultTransport = rt
	t.Cleanup(func() { http.DefaultTransport = prev })
}

func response(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func TestSignInWithPassword(t *testing.T) {
	access := signedToken(t, "user-42", time.Unix(1_900_000_000, 0))
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Fatalf("unexpected request: %s", r.URL)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Fatalf("missing apikey header")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "a@b.co" || body["password"] != "pw" {
			t.Fatalf("unexpected body: %v", body)
		}
		return response(r, http.StatusOK, fmt.Sprintf(`{"access_token":%q,"refresh_token":"r1","expires_in":3600}`, access)), nil
	}))

	g := NewGoTrue("https://proj.supabase.co/", "anon")
	g.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	s, err := g.SignInWithPassword(context.Background(), " a@b.co ", "pw")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if s.UserID != "user-42" || s.RefreshToken != "r1" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if want := time.Unix(1_700_003_600, 0); !s.ExpiresAt.Equal(want) {
		t.Fatalf("expires_in should set expiry: got %v want %v", s.ExpiresAt, want)
	}
}

func TestToken_StatusHandling(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
	}{
		{name: "bad credentials", status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`, unauthorized: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, unauthorized: true},
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "missing token", status: http.StatusOK, body: `{"refresh_token":"x"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return response(r, tc.status, tc.body), nil
			}))
			_, err := NewGoTrue("https://proj.supabase.co", "anon").Refresh(context.Background(), "r1")
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, domain.ErrUnauthorized) != tc.unauthorized {
				t.Fatalf("unauthorized mismatch for %v", err)
			}
		})
	}
}

func TestSignInWithPassword_RequiresCredentials(t *testing.T) {
	g := NewGoTrue("https://proj.supabase.co", "anon")
	if _, err := g.SignInWithPassword(context.Background(), "", "pw"); err == nil {
		t.Fatalf("expected error for missing email")
	}
	if _, err := g.Refresh(context.Background(), " "); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty refresh token, got %v", err)
	}
}

func TestSignOut(t *testing.T) {
	var auth string
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/auth/v1/logout" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		return response(r, http.StatusNoContent, ""), nil
	}))
	if err := NewGoTrue("https://proj.supabase.co", "anon").SignOut(context.Background(), "tok"); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
}

func TestSignOut_AlreadyRevoked(t *testing.T) {
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(r, http.StatusUnauthorized, `{"msg":"invalid JWT"}`), nil
	}))
	if err := NewGoTrue("https://proj.supabase.co", "anon").SignOut(context.Background(), "stale"); err != nil {
		t.Fatalf("expected revoked token to sign out cleanly, got %v", err)
	}
}

func TestToken_HonorsContext(t *testing.T) {
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if err := r.Context().Err(); err != nil {
			return nil, err
		}
		return response(r, http.StatusOK, `{}`), nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoTrue("https://proj.supabase.co", "anon").Refresh(ctx, "r1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestToken_UserIDFromResponse(t *testing.T) {
	withMockDefaultTransport(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return response(r, http.StatusOK,
			`{"access_token":"opaque","refresh_token":"r2","expires_at":1900000000,"user":{"id":"8f14e45f-ceea-467f-a0e8-2f1e2d3c4b5a"}}`), nil
	}))
	s, err := NewGoTrue("https://proj.supabase.co", "anon").Refresh(context.Background(), "r1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if s.UserID != "8f14e45f-ceea-467f-a0e8-2f1e2d3c4b5a" || !s.ExpiresAt.Equal(time.Unix(1_900_000_000, 0)) {
		t.Fatalf("unexpected session: %+v", s)
	}
}
