package feed

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/reconcile"
)

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FeedLoadedMsg:
		if msg.ReqSeq != m.reqSeq {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.engine.Track(msg.Posts)
		if msg.Authors != nil {
			_ = m.engine.ApplyTotals(reconcile.TotalsLoadedMsg{Authors: msg.Authors})
		}
		if n := len(m.engine.Posts()); m.cursor >= n {
			m.cursor = max(0, n-1)
		}
		m.ensureCursorVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// visibleCount is how many post boxes fit on screen.
func (m Model) visibleCount() int {
	// Reserved: header and tabs (~5), hints (~3).
	available := max(m.height-8, 0)
	return max(available/postBoxHeight, 1)
}

func (m *Model) ensureCursorVisible() {
	n := len(m.engine.Posts())
	if n == 0 {
		m.cursor, m.startIndex = 0, 0
		return
	}
	m.cursor = min(max(m.cursor, 0), n-1)
	visible := m.visibleCount()
	if m.cursor < m.startIndex {
		m.startIndex = m.cursor
	}
	if m.cursor >= m.startIndex+visible {
		m.startIndex = m.cursor - visible + 1
	}
	m.startIndex = min(max(m.startIndex, 0), max(n-visible, 0))
}
