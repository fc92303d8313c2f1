package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/domain"
)

var errBackend = errors.New("backend said no")

type stubAuth struct {
	id  string
	err error
}

func (s stubAuth) CurrentUserID(context.Context) (string, error) { return s.id, s.err }

type stubRemote struct {
	likeErr    error
	unlikeErr  error
	commentErr error

	inserts  int
	deletes  int
	comments []string
}

func (r *stubRemote) InsertLikeRow(context.Context, string, string) error {
	r.inserts++
	return r.likeErr
}

func (r *stubRemote) DeleteLikeRow(context.Context, string, string) error {
	r.deletes++
	return r.unlikeErr
}

func (r *stubRemote) InsertComment(_ context.Context, _, _, body string) error {
	r.comments = append(r.comments, body)
	return r.commentErr
}

func (r *stubRemote) writes() int { return r.inserts + r.deletes }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(remote *stubRemote, opts ...Option) *Engine {
	return New(stubAuth{id: "viewer-1"}, remote, opts...)
}

func seedPost(e *Engine, id string, likes int, liked bool) {
	e.Track(append(e.Posts(), domain.Post{ID: id, AuthorID: "author-" + id, LikeCount: likes, LikedByMe: liked}))
}

// runCmd executes a command synchronously, as the Bubble Tea runtime would
// on its own goroutine.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command, got nil")
	}
	return cmd()
}

func mustPost(t *testing.T, e *Engine, id string) domain.Post {
	t.Helper()
	p, ok := e.Post(id)
	if !ok {
		t.Fatalf("post %s not tracked", id)
	}
	return p
}

func comment(id string, at time.Time, body string) domain.Comment {
	return domain.Comment{ID: id, PostID: "p1", AuthorID: "viewer-1", Body: body, CreatedAt: at}
}
