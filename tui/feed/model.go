// Package feed renders the post list with live like and comment counters.
package feed

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// DefaultLimit is how many posts a feed load asks for.
const DefaultLimit = 200

// --- Messages ---

// FeedLoadedMsg is sent when a feed fetch completes.
type FeedLoadedMsg struct {
	Posts   []domain.Post
	Authors map[string]int
	ReqSeq  int
	Err     error
}

// OpenCommentsMsg asks the root model to open a post's comment thread.
type OpenCommentsMsg struct {
	PostID string
}

// ComposeCommentMsg asks the root model to compose a comment in $EDITOR.
type ComposeCommentMsg struct {
	PostID string
}

// --- Model ---

// Model holds the state for the feed view. Post state itself lives in the
// shared reconciliation engine.
type Model struct {
	engine  *reconcile.Engine
	feed    app.FeedService
	auth    app.AuthService
	limit   int
	keys    common.KeyMap
	spinner spinner.Model
	now     func() time.Time

	loading    bool
	err        error
	cursor     int
	startIndex int
	width      int
	height     int
	reqSeq     int
	showHints  bool
}

// New creates a feed model with injected dependencies.
func New(engine *reconcile.Engine, feed app.FeedService, auth app.AuthService, limit int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	if limit <= 0 {
		limit = DefaultLimit
	}

	return Model{
		engine:  engine,
		feed:    feed,
		auth:    auth,
		limit:   limit,
		keys:    common.DefaultKeyMap(),
		spinner: s,
		now:     time.Now,
		loading: true,
		reqSeq:  1,
	}
}

// Init starts the initial feed fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchFeed(m.reqSeq),
		m.spinner.Tick,
	)
}

// Refresh starts a new fetch. Results of older fetches are dropped.
func (m Model) Refresh() (Model, tea.Cmd) {
	m.reqSeq++
	m.loading = true
	return m, m.fetchFeed(m.reqSeq)
}

// Loading returns whether a fetch is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// Err returns the last load error, if any.
func (m Model) Err() error {
	return m.err
}

// Cursor returns the focused index.
func (m Model) Cursor() int {
	return m.cursor
}

// SelectedPost returns the focused post, if any.
func (m Model) SelectedPost() (domain.Post, bool) {
	posts := m.engine.Posts()
	if len(posts) == 0 {
		return domain.Post{}, false
	}
	return posts[min(m.cursor, len(posts)-1)], true
}
