package notifications

import (
	"strings"

	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// View renders the notification list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(common.AuthorStyle.Render("Notifications"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(common.ErrorStyle.Render(common.ErrorText(m.err)) + "\n")
		return b.String()
	}
	if len(m.items) == 0 && !m.loading {
		b.WriteString(common.MetadataStyle.Render("Nothing yet.") + "\n")
		return b.String()
	}

	visible := 20
	if m.height > 0 {
		visible = max(m.height-10, 1)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.items))
	for i := start; i < end; i++ {
		b.WriteString(m.renderItem(m.items[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderItem(n domain.Notification, selected bool) string {
	dot := "  "
	if !n.Read {
		dot = common.UnreadStyle.Render("● ")
	}
	icon := "•"
	switch n.Type {
	case domain.NotificationLike:
		icon = common.LikeActiveStyle.Render("♥")
	case domain.NotificationComment:
		icon = "💬"
	}
	marker := "  "
	if selected {
		marker = common.LikeActiveStyle.Render("▸ ")
	}
	return marker + dot + icon + " " + common.ContentStyle.Render(n.Message) + "  " +
		common.TimestampStyle.Render(domain.TimeAgo(n.CreatedAt, m.now()))
}
