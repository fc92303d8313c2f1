package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"

	"github.com/CrestNiraj12/feedsync/app"
)

// changeChannel is the NOTIFY channel the publish trigger writes to.
const changeChannel = "feedsync_changes"

type notifyPayload struct {
	Table  string         `json:"table"`
	Type   string         `json:"type"`
	Record map[string]any `json:"record"`
}

// Subscribe holds a dedicated connection in LISTEN mode and forwards the
// row changes that match f.
func (s *Store) Subscribe(ctx context.Context, f app.Filter) (app.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{changeChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listening for changes: %w", err)
	}

	// The listen loop outlives ctx, which only bounds the setup.
	loopCtx, cancel := context.WithCancel(context.Background())
	sub := &listenSub{
		filter: f,
		events: make(chan app.Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: s.logger,
	}
	go sub.run(loopCtx, conn.Hijack())
	s.logger.Debug("listening", "table", f.Table, "filter", f.Column)
	return sub, nil
}

type listenSub struct {
	filter app.Filter
	events chan app.Event
	cancel context.CancelFunc
	done   chan struct{}
	logger *log.Logger
	once   sync.Once
}

func (l *listenSub) Events() <-chan app.Event { return l.events }

func (l *listenSub) Close() error {
	l.once.Do(l.cancel)
	<-l.done
	return nil
}

func (l *listenSub) run(ctx context.Context, conn *pgx.Conn) {
	defer close(l.done)
	defer close(l.events)
	defer conn.Close(context.Background())

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("listen connection lost", "table", l.filter.Table, "err", err)
			}
			return
		}
		ev, ok := decodeChange(n.Payload, l.filter)
		if !ok {
			continue
		}
		select {
		case l.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// decodeChange parses a NOTIFY payload and reports whether it matches f.
func decodeChange(payload string, f app.Filter) (app.Event, bool) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return app.Event{}, false
	}
	ev := app.Event{Type: app.EventType(p.Type), Table: p.Table, Record: p.Record}
	return ev, matches(ev, f)
}

func matches(ev app.Event, f app.Filter) bool {
	if ev.Table != f.Table {
		return false
	}
	if f.Event != "" && f.Event != app.EventAny && ev.Type != f.Event {
		return false
	}
	if f.Column == "" {
		return true
	}
	v, ok := ev.Record[f.Column]
	return ok && v != nil && fmt.Sprint(v) == f.Value
}
