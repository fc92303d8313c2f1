// Package compose writes a comment in the user's external editor.
package compose

import (
	"fmt"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
)

// Editor prepares and reads back an external editor session.
type Editor interface {
	Cmd(draft, author string) (*exec.Cmd, string, error)
	ReadContent(path string) (string, error)
}

// --- Messages ---

// DoneMsg is sent when composing is complete. Content is empty if the
// user cancelled.
type DoneMsg struct {
	PostID  string
	Content string
	Err     error
}

// editorFinishedMsg is sent after the external editor exits.
type editorFinishedMsg struct {
	tmpPath string
	err     error
}

// --- Model ---

// Model holds the state for one editor session.
type Model struct {
	editor Editor
	postID string
	author string
	draft  string
	status string
}

// New creates a compose model for a comment on postID, seeded with draft.
func New(ed Editor, postID, author, draft string) Model {
	return Model{
		editor: ed,
		postID: postID,
		author: author,
		draft:  draft,
		status: "Opening editor...",
	}
}

// PostID returns the post being commented on.
func (m Model) PostID() string {
	return m.postID
}

// Init launches the editor.
func (m Model) Init() tea.Cmd {
	return m.launchEditor()
}

// launchEditor uses tea.ExecProcess so Bubble Tea releases the terminal
// while the editor runs.
func (m Model) launchEditor() tea.Cmd {
	cmd, tmpPath, err := m.editor.Cmd(m.draft, m.author)
	if err != nil {
		return done(DoneMsg{PostID: m.postID, Err: fmt.Errorf("preparing editor: %w", err)})
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{tmpPath: tmpPath, err: err}
	})
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	finished, ok := msg.(editorFinishedMsg)
	if !ok {
		return m, nil
	}
	if finished.err != nil {
		return m, done(DoneMsg{PostID: m.postID, Err: fmt.Errorf("editor: %w", finished.err)})
	}

	content, err := m.editor.ReadContent(finished.tmpPath)
	if err != nil {
		return m, done(DoneMsg{PostID: m.postID, Err: err})
	}
	m.status = ""
	return m, done(DoneMsg{PostID: m.postID, Content: content})
}

// View renders the waiting status.
func (m Model) View() string {
	return m.status + "\n"
}

// done wraps a DoneMsg into a tea.Cmd for immediate delivery.
func done(msg DoneMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}
