package common

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/feedsync/domain"
)

// TruncateLines wraps text to width and keeps at most n lines, marking the
// cut with an ellipsis.
func TruncateLines(text string, width, n int) string {
	if width < 12 {
		width = 12
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	lines := strings.Split(wrapped, "\n")
	if n < 1 || len(lines) <= n {
		return wrapped
	}
	return strings.Join(lines[:n], "\n") + "..."
}

// ClampLinesToWidth cuts every line to width display cells.
func ClampLinesToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if ansi.StringWidth(ln) <= width {
			continue
		}
		lines[i] = ansi.Cut(ln, 0, width)
	}
	return strings.Join(lines, "\n")
}

// ErrorText turns an error into status-bar text.
func ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrUnauthorized):
		return "Sign in first: run `feedsync login <email>`."
	case errors.Is(err, domain.ErrEmptyComment):
		return "Comment is empty."
	case errors.Is(err, domain.ErrMutationRejected):
		return "Not saved: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
