package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/CrestNiraj12/feedsync/domain"
)

const (
	sessionKey  = "session"
	refreshSkew = 30 * time.Second
)

// KV is the persistence the session provider needs. localstore.Store
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Refresher renews an expiring session. GoTrue satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (Session, error)
}

// SessionProvider serves the persisted session's access token, refreshing
// it shortly before expiry, and reports the signed-in user.
// Safe for concurrent use: commands call AccessToken from their own goroutines.
type SessionProvider struct {
	kv        KV
	refresher Refresher
	now       func() time.Time

	mu      sync.Mutex
	session *Session
	loaded  bool
}

// NewSessionProvider creates a provider backed by kv.
func NewSessionProvider(kv KV, refresher Refresher) *SessionProvider {
	return &SessionProvider{kv: kv, refresher: refresher, now: time.Now}
}

// Save persists a fresh session, e.g. after password sign-in.
func (p *SessionProvider) Save(ctx context.Context, s Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store(ctx, s)
}

// Clear forgets the session.
func (p *SessionProvider) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = nil
	p.loaded = true
	return p.kv.Delete(ctx, sessionKey)
}

// Current returns the stored session without refreshing it.
func (p *SessionProvider) Current(ctx context.Context) (Session, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return Session{}, false, err
	}
	if p.session == nil {
		return Session{}, false, nil
	}
	return *p.session, true, nil
}

// AccessToken returns a valid access token, refreshing if needed.
func (p *SessionProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.load(ctx); err != nil {
		return "", err
	}
	if p.session == nil {
		return "", domain.ErrUnauthorized
	}
	if p.session.Expired(p.now(), refreshSkew) {
		if p.refresher == nil {
			return "", fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
		}
		fresh, err := p.refresher.Refresh(ctx, p.session.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("refreshing session: %w", err)
		}
		if err := p.store(ctx, fresh); err != nil {
			return "", err
		}
	}
	return p.session.AccessToken, nil
}

// CurrentUserID returns the signed-in user's ID, or "" when signed out.
func (p *SessionProvider) CurrentUserID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.load(ctx); err != nil {
		return "", err
	}
	if p.session == nil {
		return "", nil
	}
	return p.session.UserID, nil
}

func (p *SessionProvider) load(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	raw, ok, err := p.kv.Get(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	p.loaded = true
	if !ok {
		return nil
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("parsing stored session: %w", err)
	}
	if s.UserID == "" {
		if claims, err := ParseAccessToken(s.AccessToken); err == nil {
			s.UserID = claims.Subject
		}
	}
	p.session = &s
	return nil
}

func (p *SessionProvider) store(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := p.kv.Set(ctx, sessionKey, string(data)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	p.session = &s
	p.loaded = true
	return nil
}
