package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/infra/auth"
)

func selectAll(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
	return q.Select("*", "", false)
}

type failingToken struct{}

func (failingToken) AccessToken(context.Context) (string, error) {
	return "", domain.ErrUnauthorized
}

func TestClient_SendsKeyAndBearer(t *testing.T) {
	var gotKey, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon", auth.StaticTokenProvider("user-token"))
	if _, _, err := c.run(context.Background(), "post_feed", selectAll); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gotKey != "anon" || gotAuth != "Bearer user-token" || gotPath != "/rest/v1/post_feed" {
		t.Fatalf("unexpected request: key=%q auth=%q path=%q", gotKey, gotAuth, gotPath)
	}
}

func TestClient_FallsBackToAnonKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon", failingToken{})
	if _, _, err := c.run(context.Background(), "post_feed", selectAll); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gotAuth != "Bearer anon" {
		t.Fatalf("expected anon bearer, got %q", gotAuth)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
		notFound     bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, unauthorized: true},
		{name: "forbidden", status: http.StatusForbidden, unauthorized: true},
		{name: "single row missing", status: http.StatusNotAcceptable, notFound: true},
		{name: "conflict", status: http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			_, _, err := NewClient(srv.URL, "anon", nil).run(context.Background(), "post_likes", selectAll)
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, domain.ErrUnauthorized) != tc.unauthorized {
				t.Fatalf("unauthorized mismatch: %v", err)
			}
			if IsNotFound(err) != tc.notFound {
				t.Fatalf("not-found mismatch: %v", err)
			}
			if !tc.unauthorized && !strings.Contains(err.Error(), "nope") {
				t.Fatalf("expected body in error: %v", err)
			}
		})
	}
}

func TestClient_HonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewClient(srv.URL, "anon", nil).run(ctx, "post_feed", selectAll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) || IsNotFound(err) {
		t.Fatalf("transport failure should not map to a status error: %v", err)
	}
}

func TestClient_UnreadableErrorBodyKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL, "anon", nil).run(context.Background(), "notifications", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "exact", true)
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized from an empty 403, got %v", err)
	}
}

func TestSanitizeForTerminal_RemovesEscapesAndControls(t *testing.T) {
	in := "ok\x1b[31mred\x1b[0m\x1b]8;;http://x\x07bad\x01\x02\nnext"
	got := sanitizeForTerminal(in)
	if strings.Contains(got, "\x1b") {
		t.Fatalf("expected ansi removed: %q", got)
	}
	if strings.ContainsRune(got, '\x01') || strings.ContainsRune(got, '\x02') {
		t.Fatalf("expected controls removed: %q", got)
	}
	if !strings.Contains(got, "ok") || !strings.Contains(got, "red") || !strings.Contains(got, "\nnext") {
		t.Fatalf("expected plain text preserved: %q", got)
	}
}
