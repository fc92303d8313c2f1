package common

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
)

const subscribeTimeout = 15 * time.Second

// SubscribedMsg reports the outcome of opening the subscription named Key.
type SubscribedMsg struct {
	Key string
	Sub app.Subscription
	Err error
}

// EventMsg carries one row change from the subscription named Key. Sub is
// the subscription that produced it; a key can be reopened while an older
// waiter is still pending.
type EventMsg struct {
	Key   string
	Sub   app.Subscription
	Event app.Event
}

// SubscriptionClosedMsg is sent when the event stream of Sub ends.
type SubscriptionClosedMsg struct {
	Key string
	Sub app.Subscription
}

// Subscribe opens a realtime subscription in the background.
func Subscribe(rt app.Realtime, key string, f app.Filter) tea.Cmd {
	if rt == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		defer cancel()
		sub, err := rt.Subscribe(ctx, f)
		return SubscribedMsg{Key: key, Sub: sub, Err: err}
	}
}

// WaitForEvent blocks for the next event on sub. Callers re-issue it after
// handling each EventMsg.
func WaitForEvent(key string, sub app.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return SubscriptionClosedMsg{Key: key, Sub: sub}
		}
		return EventMsg{Key: key, Sub: sub, Event: ev}
	}
}
