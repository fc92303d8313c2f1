package app

import "context"

// EventType is the kind of row change a realtime channel reports.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAny    EventType = "*"
)

// Event is a single row change delivered by a realtime channel.
type Event struct {
	Type   EventType
	Table  string
	Record map[string]any
}

// StringField returns a string column from the event row, or "".
func (e Event) StringField(name string) string {
	v, ok := e.Record[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Filter selects which row changes a subscription receives.
// Column/Value narrow to rows where Column equals Value.
type Filter struct {
	Table  string
	Event  EventType
	Column string
	Value  string
}

// Subscription is a live feed of row changes. Events is closed after Close
// or when the underlying connection is lost.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Realtime opens subscriptions to table changes. No ordering is guaranteed
// across separate subscriptions.
type Realtime interface {
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}
