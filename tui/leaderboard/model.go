// Package leaderboard renders users ranked by all-time likes received.
package leaderboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

var podium = [...]string{"🥇", "🥈", "🥉"}

// Model holds the view state of the leaderboard. Rows live in the engine and
// are replaced wholesale by each refetch.
type Model struct {
	engine  *reconcile.Engine
	board   app.LeaderboardService
	feed    app.FeedService
	viewer  string
	keys    common.KeyMap
	spinner spinner.Model

	loading bool
	err     error
	cursor  int
	offset  int
	height  int
}

// New creates the leaderboard view.
func New(engine *reconcile.Engine, board app.LeaderboardService, feed app.FeedService) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	return Model{
		engine:  engine,
		board:   board,
		feed:    feed,
		keys:    common.DefaultKeyMap(),
		spinner: s,
		loading: true,
	}
}

// SetViewer highlights the viewer's own row.
func (m Model) SetViewer(userID string) Model {
	m.viewer = userID
	return m
}

// Init fetches the board.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh refetches the board and the feed's author totals.
func (m Model) Refresh() tea.Cmd {
	return m.engine.MergeRealtimeLikeTotals(m.board, m.feed)
}

// Update handles messages for the leaderboard view. TotalsLoadedMsg must
// already have been applied to the engine by the caller.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reconcile.TotalsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.Refresh(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Down):
			m.cursor++
			m.clampCursor()
		case key.Matches(msg, m.keys.Up):
			m.cursor--
			m.clampCursor()
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
			m.clampCursor()
		}
	}
	return m, nil
}

func (m Model) visibleCount() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-10, 1)
}

func (m *Model) clampCursor() {
	n := len(m.engine.Leaderboard())
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// View renders the ranking.
func (m Model) View() string {
	rows := m.engine.Leaderboard()

	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render("Top users by likes received"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(common.ErrorStyle.Render(common.ErrorText(m.err)) + "\n\n")
	}
	if len(rows) == 0 && !m.loading {
		b.WriteString(common.MetadataStyle.Render("No likes yet.") + "\n")
	}

	end := min(m.offset+m.visibleCount(), len(rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i, rows[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n" + common.MetadataStyle.Render("j/k move • r refresh • updates live"))
	return b.String()
}

func (m Model) renderRow(i int, e domain.LeaderboardEntry) string {
	rank := common.RankStyle.Render(fmt.Sprintf("%d.", i+1))
	if i < len(podium) {
		rank = common.RankStyle.Render(podium[i])
	}

	name := common.AuthorStyle.Render(e.Username)
	if e.UserID == m.viewer && m.viewer != "" {
		name += common.MetadataStyle.Render(" (you)")
	}
	if badge, ok := domain.BadgeFor(e.TotalLikes); ok {
		name += " " + common.BadgeStyle(badge.Color).Render(badge.Label)
	}

	marker := "  "
	if i == m.cursor {
		marker = common.LikeActiveStyle.Render("▸ ")
	}
	likes := common.LikeActiveStyle.Render(fmt.Sprintf("♥ %d", e.TotalLikes))
	return marker + rank + " " + name + "  " + likes
}
