package comments

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// Update handles messages for the thread view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CommentsLoadedMsg:
		if msg.PostID != m.postID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.engine.SeedComments(m.postID, msg.Comments)
		return m, nil

	case CommentFetchedMsg:
		if msg.PostID != m.postID || msg.Err != nil {
			return m, nil
		}
		if m.engine.MergeRealtimeInsert(m.postID, msg.Comment) && m.offset > 0 {
			// Keep the viewport on the same comment.
			m.offset++
		}
		return m, nil

	case reconcile.CommentResultMsg:
		// The engine has already settled the result. A rejected comment is
		// back in the draft.
		if msg.PostID == m.postID && msg.Err != nil {
			m.input.SetValue(m.engine.Draft(m.postID))
		}
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.handleComposeKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.engine.SetDraft(m.postID, m.input.Value())
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		postID := m.postID
		return m, func() tea.Msg { return BackMsg{PostID: postID} }

	case key.Matches(msg, m.keys.Comments):
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Compose):
		postID := m.postID
		return m, func() tea.Msg { return ComposeMsg{PostID: postID} }

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.fetchComments(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Down):
		if m.offset < len(m.engine.Comments(m.postID))-1 {
			m.offset++
		}

	case key.Matches(msg, m.keys.Up):
		if m.offset > 0 {
			m.offset--
		}

	case key.Matches(msg, m.keys.Top):
		m.offset = 0
	}
	return m, nil
}

// Submit sends body as a comment on the thread's post, as the editor
// composer does.
func (m Model) Submit(body string) (Model, tea.Cmd) {
	m.input.SetValue(body)
	return m.submit()
}

func (m Model) submit() (Model, tea.Cmd) {
	cmd, err := m.engine.SubmitComment(context.Background(), m.postID, m.input.Value())
	if err != nil {
		return m, common.StatusErr(err)
	}
	if cmd == nil {
		return m, nil
	}
	m.input.Reset()
	m.offset = 0
	return m, cmd
}
