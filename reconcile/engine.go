// Package reconcile keeps the like counts, comment counts and comment lists
// shown to the viewer consistent with the backend. Local actions are applied
// optimistically and unwound if the write fails. Realtime inserts are merged
// idempotently.
//
// An Engine is driven from a single goroutine (the Bubble Tea update loop).
// Remote writes run inside the returned tea.Cmd and report back as messages
// that must be handed to the matching Resolve method.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
)

// DefaultLockTimeout bounds how long a like toggle may stay in flight.
const DefaultLockTimeout = 15 * time.Second

// ErrUnknownPost is returned when acting on a post the engine is not tracking.
var ErrUnknownPost = errors.New("unknown post")

// Option configures an Engine.
type Option func(*Engine)

// WithLockTimeout sets the in-flight deadline for like toggles.
// Non-positive values are ignored.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lockTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine owns per-post counters, comment lists, drafts and the per-post
// like locks. It is not safe for concurrent use.
type Engine struct {
	auth        app.AuthService
	remote      app.RemoteData
	lockTimeout time.Duration
	now         func() time.Time
	logger      *log.Logger

	order []string
	posts map[string]domain.Post

	locks    map[string]PendingMutation // like path, keyed by post ID
	comments map[int]PendingMutation    // in-flight comment inserts, keyed by seq
	seq      int

	threads map[string]*thread
	drafts  map[string]string

	board   []domain.LeaderboardEntry
	authors map[string]int
}

// New creates an Engine.
func New(auth app.AuthService, remote app.RemoteData, opts ...Option) *Engine {
	e := &Engine{
		auth:        auth,
		remote:      remote,
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
		logger:      log.New(io.Discard),
		posts:       make(map[string]domain.Post),
		locks:       make(map[string]PendingMutation),
		comments:    make(map[int]PendingMutation),
		threads:     make(map[string]*thread),
		drafts:      make(map[string]string),
		authors:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Track replaces the tracked posts with a fresh feed load. Posts with a like
// still in flight keep their optimistic like fields so the pending delta is
// neither lost nor applied twice.
func (e *Engine) Track(posts []domain.Post) {
	order := make([]string, 0, len(posts))
	next := make(map[string]domain.Post, len(posts))
	for _, p := range posts {
		if _, dup := next[p.ID]; dup {
			continue
		}
		p.LikeCount = max(0, p.LikeCount)
		p.CommentCount = max(0, p.CommentCount)
		if _, pending := e.locks[p.ID]; pending {
			if cur, ok := e.posts[p.ID]; ok {
				p.LikeCount = cur.LikeCount
				p.LikedByMe = cur.LikedByMe
			}
		}
		order = append(order, p.ID)
		next[p.ID] = p
	}
	e.order = order
	e.posts = next
}

// Post returns the current displayed state of a post.
func (e *Engine) Post(id string) (domain.Post, bool) {
	p, ok := e.posts[id]
	return p, ok
}

// Posts returns tracked posts in feed order.
func (e *Engine) Posts() []domain.Post {
	out := make([]domain.Post, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.posts[id])
	}
	return out
}

// LockState reports whether a like toggle is in flight for the post.
func (e *Engine) LockState(postID string) LockState {
	if _, ok := e.locks[postID]; ok {
		return Pending
	}
	return Idle
}

func (e *Engine) viewer(ctx context.Context) (string, error) {
	if e.auth == nil {
		return "", domain.ErrAuthRequired
	}
	id, err := e.auth.CurrentUserID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	if strings.TrimSpace(id) == "" {
		return "", domain.ErrAuthRequired
	}
	return id, nil
}

// ToggleLike flips the viewer's like on a post optimistically and returns the
// command that performs the remote write. A toggle while another is in flight
// for the same post returns a nil command and a nil error.
func (e *Engine) ToggleLike(ctx context.Context, postID string) (tea.Cmd, error) {
	userID, err := e.viewer(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := e.posts[postID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPost, postID)
	}

	now := e.now()
	kind := likeKindFor(p)
	if held, locked := e.locks[postID]; locked {
		if now.Before(held.AppliedAt.Add(e.lockTimeout)) {
			e.logger.Debug("like toggle suppressed", "post", postID, "seq", held.Seq, "err", domain.ErrDuplicateSuppressed)
			return nil, nil
		}
		// The old write never reported back. Unwind its delta, but keep the
		// kind chosen from the state on screen when the viewer tapped.
		e.logger.Warn("like lock expired", "post", postID, "seq", held.Seq, "age", now.Sub(held.AppliedAt))
		p = revert(p, held)
		delete(e.locks, postID)
	}

	e.seq++
	m := PendingMutation{
		PostID:    postID,
		Kind:      kind,
		AppliedAt: now,
		InFlight:  true,
		Seq:       e.seq,
	}
	p, m = applyDelta(p, m)
	e.posts[postID] = p
	e.locks[postID] = m

	e.logger.Debug("like applied", "post", postID, "kind", m.Kind, "seq", m.Seq, "delta", m.Delta)
	return e.likeCmd(m, userID), nil
}

func (e *Engine) likeCmd(m PendingMutation, userID string) tea.Cmd {
	remote := e.remote
	timeout := e.lockTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var err error
		if m.Kind == KindUnlike {
			err = remote.DeleteLikeRow(ctx, m.PostID, userID)
		} else {
			err = remote.InsertLikeRow(ctx, m.PostID, userID)
		}
		return LikeResultMsg{PostID: m.PostID, Seq: m.Seq, Err: err}
	}
}

// ResolveLike settles a like toggle. On failure the optimistic change is
// reverted and the returned error wraps domain.ErrMutationRejected.
// Results for a lock that has since expired are ignored.
func (e *Engine) ResolveLike(msg LikeResultMsg) error {
	m, ok := e.locks[msg.PostID]
	if !ok || m.Seq != msg.Seq {
		e.logger.Debug("stale like result", "post", msg.PostID, "seq", msg.Seq)
		return nil
	}
	delete(e.locks, msg.PostID)

	if msg.Err == nil {
		return nil
	}
	if p, ok := e.posts[msg.PostID]; ok {
		e.posts[msg.PostID] = revert(p, m)
	}
	e.logger.Info("like rejected", "post", msg.PostID, "kind", m.Kind, "err", msg.Err)
	return fmt.Errorf("%w: %w", domain.ErrMutationRejected, msg.Err)
}

// Draft returns the unsent comment text for a post.
func (e *Engine) Draft(postID string) string {
	return e.drafts[postID]
}

// SetDraft stores the unsent comment text for a post.
func (e *Engine) SetDraft(postID, text string) {
	if text == "" {
		delete(e.drafts, postID)
		return
	}
	e.drafts[postID] = text
}

// SubmitComment clears the post's draft and returns the command that inserts
// the comment. The comment list and count are left alone: they change only
// when the insert arrives through MergeRealtimeInsert. A blank body is a
// silent no-op.
func (e *Engine) SubmitComment(ctx context.Context, postID, body string) (tea.Cmd, error) {
	userID, err := e.viewer(ctx)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}

	delete(e.drafts, postID)
	e.seq++
	m := PendingMutation{
		PostID:    postID,
		Kind:      KindAddComment,
		AppliedAt: e.now(),
		InFlight:  true,
		Seq:       e.seq,
		Body:      body,
	}
	e.comments[m.Seq] = m

	remote := e.remote
	timeout := e.lockTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := remote.InsertComment(ctx, postID, userID, body)
		return CommentResultMsg{PostID: postID, Seq: m.Seq, Err: err}
	}, nil
}

// ResolveComment settles a comment insert. On failure the body is put back
// into the draft (ahead of anything typed since) and the returned error wraps
// domain.ErrMutationRejected.
func (e *Engine) ResolveComment(msg CommentResultMsg) error {
	m, ok := e.comments[msg.Seq]
	if !ok {
		return nil
	}
	delete(e.comments, msg.Seq)
	if msg.Err == nil {
		return nil
	}

	if cur := e.drafts[m.PostID]; cur != "" {
		e.drafts[m.PostID] = m.Body + "\n" + cur
	} else {
		e.drafts[m.PostID] = m.Body
	}
	e.logger.Info("comment rejected", "post", m.PostID, "seq", m.Seq, "err", msg.Err)
	return fmt.Errorf("%w: %w", domain.ErrMutationRejected, msg.Err)
}

// InFlightComments returns the number of comment inserts awaiting a result.
func (e *Engine) InFlightComments(postID string) int {
	n := 0
	for _, m := range e.comments {
		if m.PostID == postID {
			n++
		}
	}
	return n
}
