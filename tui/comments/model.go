// Package comments shows one post's comment thread with an inline composer.
package comments

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// CharLimit caps an inline comment.
const CharLimit = 1000

// --- Messages ---

// CommentsLoadedMsg carries the initial comment list of a post.
type CommentsLoadedMsg struct {
	PostID   string
	Comments []domain.Comment
	Err      error
}

// CommentFetchedMsg carries a comment announced by the realtime channel,
// with author details filled in.
type CommentFetchedMsg struct {
	PostID  string
	Comment domain.Comment
	Err     error
}

// BackMsg asks the root model to close the thread.
type BackMsg struct {
	PostID string
}

// ComposeMsg asks the root model to continue the draft in $EDITOR.
type ComposeMsg struct {
	PostID string
}

// --- Model ---

// Model holds the view state of a comment thread. The comments, count and
// draft live in the shared reconciliation engine.
type Model struct {
	engine  *reconcile.Engine
	feed    app.FeedService
	postID  string
	keys    common.KeyMap
	input   textarea.Model
	spinner spinner.Model
	now     func() time.Time

	loading bool
	err     error
	offset  int
	width   int
	height  int
}

// New creates a thread view for postID. The composer starts with the
// post's saved draft.
func New(engine *reconcile.Engine, feed app.FeedService, postID string) Model {
	ta := textarea.New()
	ta.Placeholder = "Write a comment..."
	ta.CharLimit = CharLimit
	ta.ShowLineNumbers = false
	ta.SetWidth(72)
	ta.SetHeight(3)
	ta.SetValue(engine.Draft(postID))

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))

	return Model{
		engine:  engine,
		feed:    feed,
		postID:  postID,
		keys:    common.DefaultKeyMap(),
		input:   ta,
		spinner: s,
		now:     time.Now,
		loading: true,
	}
}

// PostID returns the post this thread belongs to.
func (m Model) PostID() string {
	return m.postID
}

// Composing reports whether the inline composer has focus.
func (m Model) Composing() bool {
	return m.input.Focused()
}

// Init loads the comments.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchComments(), m.spinner.Tick)
}

// SetSize updates the layout size.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.input.SetWidth(max(min(width-4, 100), 20))
	return m
}
