package realtime

import (
	"encoding/json"

	"github.com/CrestNiraj12/feedsync/app"
)

// Phoenix channel events used by the realtime server.
const (
	eventJoin      = "phx_join"
	eventLeave     = "phx_leave"
	eventReply     = "phx_reply"
	eventError     = "phx_error"
	eventClose     = "phx_close"
	eventHeartbeat = "heartbeat"
	eventChanges   = "postgres_changes"
	eventSystem    = "system"

	topicPhoenix = "phoenix"
)

// message is the Phoenix v1 JSON frame.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type joinConfig struct {
	PostgresChanges []changeFilter `json:"postgres_changes"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Type      string         `json:"type"`
		Table     string         `json:"table"`
		Record    map[string]any `json:"record"`
		OldRecord map[string]any `json:"old_record"`
	} `json:"data"`
}

func filterFor(f app.Filter) changeFilter {
	ev := string(f.Event)
	if ev == "" {
		ev = string(app.EventAny)
	}
	cf := changeFilter{Event: ev, Schema: "public", Table: f.Table}
	if f.Column != "" {
		cf.Filter = f.Column + "=eq." + f.Value
	}
	return cf
}

// toEvent converts a postgres_changes payload. Deletes carry the old row.
func toEvent(raw json.RawMessage) (app.Event, error) {
	var p changePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return app.Event{}, err
	}
	ev := app.Event{
		Type:   app.EventType(p.Data.Type),
		Table:  p.Data.Table,
		Record: p.Data.Record,
	}
	if ev.Type == app.EventDelete && len(ev.Record) == 0 {
		ev.Record = p.Data.OldRecord
	}
	return ev, nil
}
