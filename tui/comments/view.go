package comments

import (
	"fmt"
	"strings"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// View renders the thread.
func (m Model) View() string {
	var b strings.Builder

	width := m.contentWidth()
	if p, ok := m.engine.Post(m.postID); ok {
		b.WriteString(common.AuthorStyle.Render(p.AuthorName))
		b.WriteString(" " + common.TimestampStyle.Render(domain.TimeAgo(p.CreatedAt, m.now())))
		b.WriteString("\n")
		b.WriteString(common.ContentStyle.Render(common.TruncateLines(p.Content, width, 4)))
		b.WriteString("\n")
		b.WriteString(common.MetadataStyle.Render(fmt.Sprintf("♥ %d  💬 %d", p.LikeCount, p.CommentCount)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if n := m.engine.InFlightComments(m.postID); n > 0 {
		b.WriteString(common.PendingStyle.Render(fmt.Sprintf("Sending %d comment(s)...", n)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading comments...\n")
	case m.err != nil:
		b.WriteString(common.ErrorStyle.Render(common.ErrorText(m.err)) + "\n")
	}

	list := m.engine.Comments(m.postID)
	if len(list) == 0 && !m.loading && m.err == nil {
		b.WriteString(common.MetadataStyle.Render("No comments yet. Be the first."))
		b.WriteString("\n")
	}
	end := min(m.offset+m.visibleCount(), len(list))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderComment(list[i], width))
		b.WriteString("\n")
	}

	b.WriteString(common.MetadataStyle.Render(m.hints()))
	return common.ClampLinesToWidth(b.String(), m.width)
}

func (m Model) renderComment(c domain.Comment, width int) string {
	header := common.AuthorStyle.Render(c.AuthorName) + " " +
		common.TimestampStyle.Render(domain.TimeAgo(c.CreatedAt, m.now()))
	return header + "\n" + common.ContentStyle.Render(common.TruncateLines(c.Body, width, 3)) + "\n"
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 76
	}
	return max(m.width-4, 20)
}

func (m Model) visibleCount() int {
	if m.height <= 0 {
		return 5
	}
	// Post header (~7), composer (~5), hints (~2). A comment takes ~5 lines.
	return max((m.height-14)/5, 1)
}

func (m Model) hints() string {
	if m.input.Focused() {
		return "ctrl+s send • esc stop typing"
	}
	return "enter type • ctrl+s send • c editor • j/k scroll • r reload • esc back"
}
