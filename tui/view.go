package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/tui/common"
)

// View renders the header, tab bar, active sub-view and status line.
func (a App) View() string {
	if a.active == composeView {
		return a.compose.View()
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom,
		common.AppTitleStyle.Render("♥ feedsync"),
		common.TaglineStyle.Render("likes and comments, live"),
	))
	b.WriteString("\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	switch a.active {
	case feedView:
		b.WriteString(a.feed.View())
	case leaderboardView:
		b.WriteString(a.board.View())
	case notificationsView:
		b.WriteString(a.notes.View())
	case commentsView:
		b.WriteString(a.comments.View())
	}

	if a.status != "" {
		style := common.StatusBarStyle
		if strings.HasPrefix(a.status, "Error") || strings.HasPrefix(a.status, "Not saved") {
			style = style.Inherit(common.ErrorStyle)
		}
		b.WriteString("\n" + style.Render(a.status))
	}
	return b.String()
}

func (a App) renderTabs() string {
	labels := map[activeView]string{
		feedView:          "1 Feed",
		leaderboardView:   "2 Leaderboard",
		notificationsView: "3 Notifications",
	}
	if n := a.notes.Unread(); n > 0 {
		labels[notificationsView] += common.UnreadStyle.Render(fmt.Sprintf(" ●%d", n))
	}

	tabs := make([]string, 0, len(tabOrder))
	for _, v := range tabOrder {
		style := common.TabInactiveStyle
		if v == a.tab {
			style = common.TabActiveStyle
		}
		tabs = append(tabs, style.Render(labels[v]))
	}
	return " " + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
