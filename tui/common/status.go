package common

import tea "github.com/charmbracelet/bubbletea"

// StatusMsg asks the root model to show a transient status line.
type StatusMsg struct {
	Text string
	Err  error
}

// Status returns a command that shows text in the status bar.
func Status(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

// StatusErr returns a command that shows err in the status bar.
func StatusErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg { return StatusMsg{Err: err} }
}

// String renders the status for display.
func (s StatusMsg) String() string {
	if s.Err != nil {
		return ErrorText(s.Err)
	}
	return s.Text
}
