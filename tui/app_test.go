package tui

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/infra/config"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/comments"
	"github.com/CrestNiraj12/feedsync/tui/common"
	"github.com/CrestNiraj12/feedsync/tui/compose"
	"github.com/CrestNiraj12/feedsync/tui/feed"
	"github.com/CrestNiraj12/feedsync/tui/notifications"
)

type stubAuth struct{ id string }

func (a stubAuth) CurrentUserID(context.Context) (string, error) { return a.id, nil }

type stubRemote struct {
	likeErr error
	bodies  []string
}

func (r *stubRemote) InsertLikeRow(context.Context, string, string) error { return r.likeErr }
func (r *stubRemote) DeleteLikeRow(context.Context, string, string) error { return r.likeErr }
func (r *stubRemote) InsertComment(_ context.Context, _, _, body string) error {
	r.bodies = append(r.bodies, body)
	return nil
}

type stubFeed struct {
	posts    []domain.Post
	comments map[string]domain.Comment
	totals   int
}

func (s *stubFeed) FetchFeed(context.Context, int) ([]domain.Post, error) { return s.posts, nil }
func (s *stubFeed) LikedByMe(context.Context, string, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}
func (s *stubFeed) AuthorTotals(context.Context, []string) (map[string]int, error) {
	s.totals++
	return map[string]int{"author": 11}, nil
}
func (s *stubFeed) FetchComments(context.Context, string) ([]domain.Comment, error) {
	return nil, nil
}
func (s *stubFeed) FetchComment(_ context.Context, id string) (domain.Comment, error) {
	return s.comments[id], nil
}

type stubBoard struct{ calls int }

func (b *stubBoard) Top(context.Context, int) ([]domain.LeaderboardEntry, error) {
	b.calls++
	return []domain.LeaderboardEntry{{UserID: "author", Username: "ana", TotalLikes: 11}}, nil
}

type stubNotes struct{ marked int }

func (s *stubNotes) List(context.Context, string, int) ([]domain.Notification, error) {
	return nil, nil
}
func (s *stubNotes) UnreadCount(context.Context, string) (int, error) { return 4, nil }
func (s *stubNotes) MarkAllRead(context.Context, string) error {
	s.marked++
	return nil
}

type fakeSub struct {
	events chan app.Event
	once   sync.Once
	closed bool
}

func newFakeSub() *fakeSub { return &fakeSub{events: make(chan app.Event, 4)} }

func (s *fakeSub) Events() <-chan app.Event { return s.events }
func (s *fakeSub) Close() error {
	s.once.Do(func() {
		s.closed = true
		close(s.events)
	})
	return nil
}

type fakeRealtime struct {
	filters []app.Filter
	subs    []*fakeSub
}

func (r *fakeRealtime) Subscribe(_ context.Context, f app.Filter) (app.Subscription, error) {
	r.filters = append(r.filters, f)
	sub := newFakeSub()
	r.subs = append(r.subs, sub)
	return sub, nil
}

type stubEditor struct{}

func (stubEditor) Cmd(string, string) (*exec.Cmd, string, error) {
	return exec.Command("true"), "/tmp/x.md", nil
}
func (stubEditor) ReadContent(string) (string, error) { return "", nil }

type fixture struct {
	app    App
	engine *reconcile.Engine
	remote *stubRemote
	feed   *stubFeed
	board  *stubBoard
	notes  *stubNotes
	rt     *fakeRealtime
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote: &stubRemote{},
		feed: &stubFeed{
			posts:    []domain.Post{{ID: "p1", AuthorID: "author", AuthorName: "ana", LikeCount: 2}},
			comments: map[string]domain.Comment{"c1": {ID: "c1", PostID: "p1", Body: "hey"}},
		},
		board: &stubBoard{},
		notes: &stubNotes{},
		rt:    &fakeRealtime{},
	}
	auth := stubAuth{id: "viewer"}
	f.engine = reconcile.New(auth, f.remote)
	f.engine.Track(f.feed.posts)
	f.app = NewApp(Deps{
		Engine:        f.engine,
		Auth:          auth,
		Feed:          f.feed,
		Leaderboard:   f.board,
		Notifications: f.notes,
		Realtime:      f.rt,
		Editor:        stubEditor{},
		UIStatePath:   filepath.Join(t.TempDir(), "ui_state.json"),
	})
	return f
}

// send runs msg through Update and returns the command.
func (f *fixture) send(msg tea.Msg) tea.Cmd {
	m, cmd := f.app.Update(msg)
	f.app = m.(App)
	return cmd
}

// subscribe delivers a subscription for key the way common.Subscribe would.
func (f *fixture) subscribe(t *testing.T, k string, filter app.Filter) *fakeSub {
	t.Helper()
	msg, ok := common.Subscribe(f.rt, k, filter)().(common.SubscribedMsg)
	if !ok {
		t.Fatal("expected SubscribedMsg")
	}
	if cmd := f.send(msg); cmd == nil {
		t.Fatalf("expected wait command for %s", k)
	}
	return f.rt.subs[len(f.rt.subs)-1]
}

func TestLikeRejectionRevertsAndReportsStatus(t *testing.T) {
	f := newFixture(t)
	f.remote.likeErr = errors.New("rls")

	cmd, err := f.engine.ToggleLike(context.Background(), "p1")
	if err != nil || cmd == nil {
		t.Fatalf("unexpected toggle result: %v", err)
	}
	status := f.send(cmd())
	if status == nil {
		t.Fatal("expected status command")
	}
	f.send(status())

	p, _ := f.engine.Post("p1")
	if p.LikeCount != 2 || p.LikedByMe {
		t.Fatalf("expected revert, got %+v", p)
	}
	if !strings.Contains(f.app.View(), "Not saved") {
		t.Fatalf("expected rejection status:\n%s", f.app.View())
	}
}

func TestLikeEventRefetchesTotals(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, likesKey, likesFilter())

	cmd := f.send(common.EventMsg{Key: likesKey, Sub: sub, Event: app.Event{Type: app.EventInsert, Table: "post_likes"}})
	if cmd == nil {
		t.Fatal("expected refetch command")
	}
	totals, ok := f.engine.MergeRealtimeLikeTotals(f.board, f.feed)().(reconcile.TotalsLoadedMsg)
	if !ok || totals.Err != nil {
		t.Fatalf("unexpected totals %+v", totals)
	}
	f.send(totals)
	if got := f.engine.AuthorTotal("author"); got != 11 {
		t.Fatalf("expected author total 11, got %d", got)
	}
	if len(f.engine.Leaderboard()) != 1 {
		t.Fatal("expected leaderboard row")
	}

	f.app.Close()
	if !sub.closed {
		t.Fatal("expected subscription closed on quit")
	}
}

func TestCommentThreadSubscribesAndMergesRealtimeInsert(t *testing.T) {
	f := newFixture(t)

	if cmd := f.send(feed.OpenCommentsMsg{PostID: "p1"}); cmd == nil {
		t.Fatal("expected thread init command")
	}
	if f.app.active != commentsView {
		t.Fatalf("expected comments view, got %v", f.app.active)
	}
	key := comments.SubscriptionKey("p1")
	sub := f.subscribe(t, key, comments.Filter("p1"))

	ev := app.Event{Type: app.EventInsert, Table: "post_comments", Record: map[string]any{"id": "c1", "post_id": "p1"}}
	f.send(common.EventMsg{Key: key, Sub: sub, Event: ev})
	fetched := comments.FetchComment(f.feed, "p1", ev)()
	f.send(fetched)
	f.send(fetched)

	p, _ := f.engine.Post("p1")
	if p.CommentCount != 1 || len(f.engine.Comments("p1")) != 1 {
		t.Fatalf("expected one merged comment, count=%d", p.CommentCount)
	}

	f.send(comments.BackMsg{PostID: "p1"})
	if f.app.active != feedView || f.app.thread {
		t.Fatal("expected thread closed")
	}
	if !sub.closed {
		t.Fatal("expected comment subscription closed")
	}
	if f.engine.Comments("p1") != nil {
		t.Fatal("expected thread released")
	}
}

func TestLateSubscriptionForClosedThreadIsClosed(t *testing.T) {
	f := newFixture(t)
	sub := newFakeSub()
	if cmd := f.send(common.SubscribedMsg{Key: comments.SubscriptionKey("gone"), Sub: sub}); cmd != nil {
		t.Fatal("expected no wait command")
	}
	if !sub.closed {
		t.Fatal("expected unwanted subscription closed")
	}
}

func TestClosedSubscriptionIsReopened(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, likesKey, likesFilter())

	if cmd := f.send(common.SubscriptionClosedMsg{Key: likesKey, Sub: sub}); cmd == nil {
		t.Fatal("expected resubscribe tick")
	}
	if _, ok := f.app.subs[likesKey]; ok {
		t.Fatal("expected closed subscription dropped")
	}
	if cmd := f.send(resubscribeMsg{Key: likesKey}); cmd == nil {
		t.Fatal("expected subscribe command")
	}
}

func TestReopenedThreadSurvivesLateCloseOfPreviousSubscription(t *testing.T) {
	f := newFixture(t)
	key := comments.SubscriptionKey("p1")

	f.send(feed.OpenCommentsMsg{PostID: "p1"})
	old := f.subscribe(t, key, comments.Filter("p1"))
	f.send(comments.BackMsg{PostID: "p1"})
	if !old.closed {
		t.Fatal("expected first subscription closed with the thread")
	}

	f.send(feed.OpenCommentsMsg{PostID: "p1"})
	current := f.subscribe(t, key, comments.Filter("p1"))

	// The waiter on the first subscription reports its close only now.
	closed, ok := common.WaitForEvent(key, old)().(common.SubscriptionClosedMsg)
	if !ok {
		t.Fatal("expected SubscriptionClosedMsg from the released subscription")
	}
	if cmd := f.send(closed); cmd != nil {
		t.Fatal("late close of a released subscription must not resubscribe")
	}
	if f.app.subs[key] != current {
		t.Fatal("expected current subscription still tracked")
	}
	if current.closed {
		t.Fatal("current subscription must stay open")
	}
	if n := len(f.rt.subs); n != 2 {
		t.Fatalf("expected two subscriptions opened, got %d", n)
	}
}

func TestEventFromReplacedSubscriptionIsDropped(t *testing.T) {
	f := newFixture(t)
	key := comments.SubscriptionKey("p1")

	f.send(feed.OpenCommentsMsg{PostID: "p1"})
	old := f.subscribe(t, key, comments.Filter("p1"))
	f.send(comments.BackMsg{PostID: "p1"})
	f.send(feed.OpenCommentsMsg{PostID: "p1"})
	f.subscribe(t, key, comments.Filter("p1"))

	ev := app.Event{Type: app.EventInsert, Table: "post_comments", Record: map[string]any{"id": "c1", "post_id": "p1"}}
	if cmd := f.send(common.EventMsg{Key: key, Sub: old, Event: ev}); cmd != nil {
		t.Fatal("event from a released subscription must not start another waiter")
	}
}

func TestViewerLoadsUnreadBadge(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(viewerMsg{ID: "viewer"})
	if cmd == nil {
		t.Fatal("expected unread and subscribe commands")
	}
	f.send(f.app.notes.LoadUnread()())
	if f.app.notes.Unread() != 4 {
		t.Fatalf("expected 4 unread, got %d", f.app.notes.Unread())
	}
	if !strings.Contains(f.app.View(), "●4") {
		t.Fatalf("expected badge in tabs:\n%s", f.app.View())
	}

	sub := f.subscribe(t, notifications.SubscriptionKey, f.app.notes.Filter())
	f.send(common.EventMsg{Key: notifications.SubscriptionKey, Sub: sub, Event: app.Event{
		Type:   app.EventInsert,
		Record: map[string]any{"id": "n1", "user_id": "viewer", "type": "comment", "message": "hi"},
	}})
	if f.app.notes.Unread() != 5 {
		t.Fatalf("expected 5 unread, got %d", f.app.notes.Unread())
	}
}

func TestTabSwitchPersistsAndOpensNotifications(t *testing.T) {
	f := newFixture(t)
	f.send(viewerMsg{ID: "viewer"})

	cmd := f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if f.app.active != notificationsView {
		t.Fatalf("expected notifications tab, got %v", f.app.active)
	}
	if cmd == nil {
		t.Fatal("expected open and save commands")
	}
	if msg := f.app.saveTab()(); msg != nil {
		t.Fatalf("unexpected message %v", msg)
	}
	st, err := config.LoadUIState(f.app.deps.UIStatePath)
	if err != nil || st.Tab != "notifications" {
		t.Fatalf("expected saved tab, got %+v err=%v", st, err)
	}

	f.send(tea.KeyMsg{Type: tea.KeyTab})
	if f.app.active != feedView {
		t.Fatalf("expected wrap to feed, got %v", f.app.active)
	}
	f.send(tea.KeyMsg{Type: tea.KeyShiftTab})
	if f.app.active != notificationsView {
		t.Fatalf("expected back to notifications, got %v", f.app.active)
	}
}

func TestInitialTabFromState(t *testing.T) {
	a := NewApp(Deps{Engine: reconcile.New(nil, nil), InitialTab: "Leaderboard"})
	if a.active != leaderboardView {
		t.Fatalf("expected leaderboard, got %v", a.active)
	}
}

func TestComposeDoneSubmitsComment(t *testing.T) {
	f := newFixture(t)
	f.engine.SetDraft("p1", "draft")

	if cmd := f.send(feed.ComposeCommentMsg{PostID: "p1"}); cmd == nil {
		t.Fatal("expected editor command")
	}
	if f.app.active != composeView {
		t.Fatal("expected compose view")
	}

	cmd := f.send(compose.DoneMsg{PostID: "p1", Content: "from editor"})
	if f.app.active != feedView {
		t.Fatal("expected return to feed")
	}
	if cmd == nil {
		t.Fatal("expected insert command")
	}
	if f.engine.Draft("p1") != "" {
		t.Fatal("expected draft cleared")
	}
	f.send(cmd())
	if len(f.remote.bodies) != 1 || f.remote.bodies[0] != "from editor" {
		t.Fatalf("unexpected inserts %v", f.remote.bodies)
	}
	if !strings.Contains(f.app.View(), "Comment sent.") {
		t.Fatalf("expected sent status:\n%s", f.app.View())
	}
}

func TestComposeCancelKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.engine.SetDraft("p1", "draft")
	f.send(feed.ComposeCommentMsg{PostID: "p1"})
	f.send(compose.DoneMsg{PostID: "p1"})
	if f.engine.Draft("p1") != "draft" {
		t.Fatal("expected draft kept")
	}
}
