package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// postBoxHeight is the rendered height of one post: header, two lines of
// content, media, counters and the border.
const postBoxHeight = 7

// View renders the feed.
func (m Model) View() string {
	posts := m.engine.Posts()

	if m.loading && len(posts) == 0 {
		return fmt.Sprintf("\n  %s Loading feed...\n", m.spinner.View())
	}
	if m.err != nil && len(posts) == 0 {
		return "\n  " + common.ErrorStyle.Render(common.ErrorText(m.err)) + "\n"
	}
	if len(posts) == 0 {
		return "\n  No posts yet.\n" + m.renderHints()
	}

	var b strings.Builder
	if m.loading {
		b.WriteString("  " + m.spinner.View() + " Refreshing...\n")
	}

	end := min(m.startIndex+m.visibleCount(), len(posts))
	for i := m.startIndex; i < end; i++ {
		b.WriteString(m.renderPost(posts[i], i == m.cursor))
		b.WriteString("\n")
	}
	b.WriteString(common.MetadataStyle.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(posts))))
	b.WriteString("\n")
	b.WriteString(m.renderHints())
	return b.String()
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 76
	}
	return max(m.width-6, 20)
}

func (m Model) renderPost(p domain.Post, selected bool) string {
	width := m.contentWidth()

	header := common.AuthorStyle.Render(p.AuthorName)
	if badge, ok := domain.BadgeFor(m.engine.AuthorTotal(p.AuthorID)); ok {
		header += " " + common.BadgeStyle(badge.Color).Render(badge.Label)
	}
	header += " " + common.TimestampStyle.Render(domain.TimeAgo(p.CreatedAt, m.now()))

	lines := []string{
		header,
		common.ContentStyle.Render(common.TruncateLines(p.Content, width, 2)),
	}
	if p.MediaURL != "" {
		lines = append(lines, common.MetadataStyle.Render("[media] "+p.MediaURL))
	}
	lines = append(lines, m.renderCounters(p))

	body := common.ClampLinesToWidth(strings.Join(lines, "\n"), width)
	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Width(width + 2).Render(body)
}

func (m Model) renderCounters(p domain.Post) string {
	heart := "♡"
	likeStyle := common.MetadataStyle
	if p.LikedByMe {
		heart = "♥"
		likeStyle = common.LikeActiveStyle
	}
	likes := likeStyle.Render(fmt.Sprintf("%s %d", heart, p.LikeCount))
	if m.engine.LockState(p.ID) == reconcile.Pending {
		likes += common.PendingStyle.Render(" …")
	}
	comments := common.MetadataStyle.Render(fmt.Sprintf("💬 %d", p.CommentCount))
	return lipgloss.JoinHorizontal(lipgloss.Top, likes, "   ", comments)
}

func (m Model) renderHints() string {
	if !m.showHints {
		return common.MetadataStyle.Render("  ? help")
	}
	return common.MetadataStyle.Render(
		"  j/k move  l like  enter comments  c compose  r refresh  tab switch  q quit",
	)
}
