// Package supabase implements the app services over Supabase's PostgREST API.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/infra/auth"
)

// Client wraps postgrest-go for the REST endpoints of a project.
// It handles base URL construction and the apikey/bearer headers.
type Client struct {
	restURL       string
	anonKey       string
	tokenProvider auth.TokenProvider
	transport     http.RoundTripper
	timeout       time.Duration
}

// NewClient creates a REST client. tp supplies the user's access token;
// when it fails the anon key is sent instead so public reads still work.
func NewClient(baseURL, anonKey string, tp auth.TokenProvider) *Client {
	return &Client{
		restURL:       strings.TrimRight(baseURL, "/") + "/rest/v1",
		anonKey:       anonKey,
		tokenProvider: tp,
		timeout:       20 * time.Second,
	}
}

// builder narrows a table query to one PostgREST call.
type builder func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder

// run executes one call against table and returns the body and, when a
// count was requested, the total from Content-Range.
func (c *Client) run(ctx context.Context, table string, build builder) ([]byte, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rest := postgrest.NewClient(c.restURL, "public", map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + c.bearer(ctx),
	})
	if rest.ClientError != nil {
		return nil, 0, fmt.Errorf("creating client: %w", rest.ClientError)
	}
	rt := &statusTransport{ctx: ctx, base: c.transport}
	rest.Transport.Parent = rt

	data, count, err := build(rest.From(table)).Execute()
	if err != nil {
		return nil, 0, wrapError(rt, table, err)
	}
	return data, count, nil
}

func (c *Client) bearer(ctx context.Context) string {
	if c.tokenProvider != nil {
		if tok, err := c.tokenProvider.AccessToken(ctx); err == nil {
			return tok
		}
	}
	return c.anonKey
}

func wrapError(rt *statusTransport, table string, err error) error {
	switch {
	case rt.status == http.StatusUnauthorized || rt.status == http.StatusForbidden:
		return fmt.Errorf("API %s %s returned %d: %w", rt.method, table, rt.status, domain.ErrUnauthorized)
	case rt.status >= 400:
		return &APIError{Method: rt.method, Table: table, Status: rt.status, Message: err.Error()}
	default:
		return fmt.Errorf("request to %s: %w", table, err)
	}
}

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Method  string
	Table   string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API %s %s returned %d: %s", e.Method, e.Table, e.Status, e.Message)
}

// IsNotFound reports whether err is a single-row lookup that matched nothing.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotAcceptable
}

// statusTransport attaches a context to each request and keeps the method
// and status of the last exchange. postgrest-go builds its requests without
// a context and folds the status into its error text.
type statusTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	method string
	status int
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	t.method = req.Method
	resp, err := base.RoundTrip(req.WithContext(t.ctx))
	if resp != nil {
		t.status = resp.StatusCode
	}
	return resp, err
}
