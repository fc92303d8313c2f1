// Package notifications lists like and comment activity on the viewer's
// posts and keeps the unread badge current.
package notifications

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
	"github.com/CrestNiraj12/feedsync/tui/common"
)

// ListLimit is how many notifications are loaded.
const ListLimit = 100

const loadTimeout = 15 * time.Second

// SubscriptionKey names the realtime subscription for new notifications.
const SubscriptionKey = "notifications"

// --- Messages ---

// LoadedMsg carries the viewer's notifications.
type LoadedMsg struct {
	Items []domain.Notification
	Err   error
}

// UnreadCountMsg carries the unread badge count.
type UnreadCountMsg struct {
	Count int
	Err   error
}

// MarkedReadMsg reports the outcome of marking everything read.
type MarkedReadMsg struct {
	Err error
}

// --- Model ---

// Model holds the notification list and unread count.
type Model struct {
	svc     app.NotificationService
	viewer  string
	keys    common.KeyMap
	spinner spinner.Model
	now     func() time.Time

	items   []domain.Notification
	unread  int
	active  bool
	loading bool
	err     error
	cursor  int
	height  int
}

// New creates the notifications view.
func New(svc app.NotificationService) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	return Model{
		svc:     svc,
		keys:    common.DefaultKeyMap(),
		spinner: s,
		now:     time.Now,
	}
}

// SetViewer sets whose notifications are shown.
func (m Model) SetViewer(userID string) Model {
	m.viewer = userID
	return m
}

// Filter is the realtime subscription for the viewer's new notifications.
func (m Model) Filter() app.Filter {
	return app.Filter{
		Table:  "notifications",
		Event:  app.EventInsert,
		Column: "user_id",
		Value:  m.viewer,
	}
}

// Unread returns the unread badge count.
func (m Model) Unread() int {
	return m.unread
}

// Items returns the loaded notifications, newest first.
func (m Model) Items() []domain.Notification {
	return m.items
}

// LoadUnread fetches the unread badge count.
func (m Model) LoadUnread() tea.Cmd {
	svc, viewer := m.svc, m.viewer
	if svc == nil || viewer == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		n, err := svc.UnreadCount(ctx, viewer)
		return UnreadCountMsg{Count: n, Err: err}
	}
}

// Open activates the tab: it loads the list and marks everything read.
func (m Model) Open() (Model, tea.Cmd) {
	m.active = true
	if m.svc == nil || m.viewer == "" {
		m.err = domain.ErrAuthRequired
		return m, nil
	}
	m.loading = true
	m.unread = 0
	return m, tea.Batch(m.load(), m.markAllRead(), m.spinner.Tick)
}

// Close deactivates the tab.
func (m Model) Close() Model {
	m.active = false
	return m
}

func (m Model) load() tea.Cmd {
	svc, viewer := m.svc, m.viewer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := svc.List(ctx, viewer, ListLimit)
		return LoadedMsg{Items: items, Err: err}
	}
}

func (m Model) markAllRead() tea.Cmd {
	svc, viewer := m.svc, m.viewer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return MarkedReadMsg{Err: svc.MarkAllRead(ctx, viewer)}
	}
}

// Push adds a notification delivered by the realtime channel. Duplicates
// are ignored. While the tab is open the new row is marked read at once.
func (m Model) Push(ev app.Event) (Model, tea.Cmd) {
	n, ok := FromEvent(ev)
	if !ok || (m.viewer != "" && n.UserID != "" && n.UserID != m.viewer) {
		return m, nil
	}
	for _, existing := range m.items {
		if existing.ID == n.ID {
			return m, nil
		}
	}
	m.items = append([]domain.Notification{n}, m.items...)
	if m.cursor > 0 {
		m.cursor++
	}
	if m.active {
		m.items[0].Read = true
		return m, m.markAllRead()
	}
	if !n.Read {
		m.unread++
	}
	return m, nil
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case UnreadCountMsg:
		if msg.Err == nil && !m.active {
			m.unread = msg.Count
		}
		return m, nil

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.items = msg.Items
		m.cursor = min(m.cursor, max(len(m.items)-1, 0))
		return m, nil

	case MarkedReadMsg:
		if msg.Err != nil {
			return m, common.StatusErr(msg.Err)
		}
		for i := range m.items {
			m.items[i].Read = true
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			return m.Open()
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		}
	}
	return m, nil
}
