// Package tui is the Bubble Tea front end. The root App owns the realtime
// subscriptions and hands every write result back to the shared engine.
package tui

import (
	"context"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/comments"
	"github.com/CrestNiraj12/feedsync/tui/common"
	"github.com/CrestNiraj12/feedsync/tui/compose"
	"github.com/CrestNiraj12/feedsync/tui/feed"
	"github.com/CrestNiraj12/feedsync/tui/leaderboard"
	"github.com/CrestNiraj12/feedsync/tui/notifications"
)

// likesKey names the subscription to every like insert and delete.
const likesKey = "likes"

// resubscribeDelay is how long a dropped subscription waits before reopening.
const resubscribeDelay = 5 * time.Second

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Engine        *reconcile.Engine
	Auth          app.AuthService
	Feed          app.FeedService
	Leaderboard   app.LeaderboardService
	Notifications app.NotificationService
	Realtime      app.Realtime // nil disables live updates
	Editor        compose.Editor
	FeedLimit     int
	InitialTab    string // "feed", "leaderboard" or "notifications"
	UIStatePath   string // "" disables saving the tab
	Logger        *log.Logger
}

type activeView int

const (
	feedView activeView = iota
	leaderboardView
	notificationsView
	commentsView
	composeView
)

var tabNames = map[activeView]string{
	feedView:          "feed",
	leaderboardView:   "leaderboard",
	notificationsView: "notifications",
}

var tabOrder = []activeView{feedView, leaderboardView, notificationsView}

// App is the root Bubble Tea model. It routes between sub-views.
type App struct {
	deps   Deps
	logger *log.Logger
	keys   common.KeyMap

	active   activeView
	tab      activeView // tab shown behind the comment thread and composer
	composer activeView // view to return to when the editor closes

	feed     feed.Model
	board    leaderboard.Model
	notes    notifications.Model
	comments comments.Model
	compose  compose.Model
	thread   bool // comments holds an open thread

	subs   map[string]app.Subscription
	viewer string
	status string
	width  int
	height int
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tab := feedView
	for v, name := range tabNames {
		if name == strings.ToLower(deps.InitialTab) {
			tab = v
		}
	}

	return App{
		deps:   deps,
		logger: logger,
		keys:   common.DefaultKeyMap(),
		active: tab,
		tab:    tab,
		feed:   feed.New(deps.Engine, deps.Feed, deps.Auth, deps.FeedLimit),
		board:  leaderboard.New(deps.Engine, deps.Leaderboard, deps.Feed),
		notes:  notifications.New(deps.Notifications),
		subs:   make(map[string]app.Subscription),
	}
}

// Init loads the feed and leaderboard, resolves the viewer and opens the
// like subscription.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.feed.Init(),
		a.board.Init(),
		a.initViewer(),
		common.Subscribe(a.deps.Realtime, likesKey, likesFilter()),
	)
}

type viewerMsg struct {
	ID string
}

type resubscribeMsg struct {
	Key string
}

func (a App) initViewer() tea.Cmd {
	auth := a.deps.Auth
	return func() tea.Msg {
		if auth == nil {
			return viewerMsg{}
		}
		id, _ := auth.CurrentUserID(context.Background())
		return viewerMsg{ID: id}
	}
}

func likesFilter() app.Filter {
	return app.Filter{Table: "post_likes", Event: app.EventAny}
}

// Close releases every open subscription.
func (a App) Close() {
	for k, sub := range a.subs {
		if err := sub.Close(); err != nil {
			a.logger.Debug("closing subscription", "key", k, "err", err)
		}
		delete(a.subs, k)
	}
}
