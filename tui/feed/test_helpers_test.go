package feed

import (
	"context"
	"testing"
	"time"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/reconcile"
)

type stubFeed struct {
	posts   []domain.Post
	liked   map[string]bool
	authors map[string]int
	err     error

	likedCalls int
}

func (s *stubFeed) FetchFeed(context.Context, int) ([]domain.Post, error) {
	return s.posts, s.err
}
func (s *stubFeed) LikedByMe(_ context.Context, _ string, _ []string) (map[string]bool, error) {
	s.likedCalls++
	return s.liked, nil
}
func (s *stubFeed) AuthorTotals(context.Context, []string) (map[string]int, error) {
	return s.authors, nil
}
func (s *stubFeed) FetchComments(context.Context, string) ([]domain.Comment, error) {
	return nil, nil
}
func (s *stubFeed) FetchComment(context.Context, string) (domain.Comment, error) {
	return domain.Comment{}, nil
}

type stubAuth struct{ id string }

func (a stubAuth) CurrentUserID(context.Context) (string, error) { return a.id, nil }

type stubRemote struct{ err error }

func (r stubRemote) InsertLikeRow(context.Context, string, string) error { return r.err }
func (r stubRemote) DeleteLikeRow(context.Context, string, string) error { return r.err }
func (r stubRemote) InsertComment(context.Context, string, string, string) error {
	return r.err
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makePost(id string, likes int) domain.Post {
	return domain.Post{
		ID:         id,
		AuthorID:   "author-" + id,
		AuthorName: "Author " + id,
		Content:    "hello from " + id,
		CreatedAt:  testNow.Add(-time.Hour),
		LikeCount:  likes,
	}
}

func newTestModel(feed *stubFeed, remote stubRemote) (Model, *reconcile.Engine) {
	auth := stubAuth{id: "viewer"}
	engine := reconcile.New(auth, remote, reconcile.WithClock(func() time.Time { return testNow }))
	m := New(engine, feed, auth, 10)
	m.now = func() time.Time { return testNow }
	m.width = 100
	m.height = 40
	return m, engine
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.fetchFeed(m.reqSeq)()
	loadedMsg, ok := msg.(FeedLoadedMsg)
	if !ok {
		t.Fatalf("expected FeedLoadedMsg, got %T", msg)
	}
	m, _ = m.Update(loadedMsg)
	return m
}
