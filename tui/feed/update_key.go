package feed

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/tui/common"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		return m.Refresh()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.engine.Posts())-1 {
			m.cursor++
		}
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.Like):
		p, ok := m.SelectedPost()
		if !ok {
			break
		}
		cmd, err := m.engine.ToggleLike(context.Background(), p.ID)
		if err != nil {
			return m, common.StatusErr(err)
		}
		return m, cmd

	case key.Matches(msg, m.keys.Comments):
		p, ok := m.SelectedPost()
		if !ok {
			break
		}
		return m, func() tea.Msg { return OpenCommentsMsg{PostID: p.ID} }

	case key.Matches(msg, m.keys.Compose):
		p, ok := m.SelectedPost()
		if !ok {
			break
		}
		return m, func() tea.Msg { return ComposeCommentMsg{PostID: p.ID} }

	case key.Matches(msg, m.keys.ToggleHints):
		m.showHints = !m.showHints
	}

	return m, nil
}
