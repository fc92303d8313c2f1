package notifications

import (
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
)

// FromEvent builds a notification from a realtime insert row.
func FromEvent(ev app.Event) (domain.Notification, bool) {
	id := ev.StringField("id")
	if id == "" {
		return domain.Notification{}, false
	}
	n := domain.Notification{
		ID:      id,
		UserID:  ev.StringField("user_id"),
		ActorID: ev.StringField("actor_id"),
		PostID:  ev.StringField("post_id"),
		Type:    domain.NotificationType(ev.StringField("type")),
		Message: ansi.Strip(ev.StringField("message")),
	}
	if read, ok := ev.Record["read"].(bool); ok {
		n.Read = read
	}
	if ts := ev.StringField("created_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			n.CreatedAt = t
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return n, true
}
