// Package realtime subscribes to Supabase Realtime row changes over the
// Phoenix channel protocol.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/infra/auth"
)

const (
	defaultHeartbeat = 30 * time.Second
	joinTimeout      = 10 * time.Second
	writeTimeout     = 5 * time.Second
	eventBuffer      = 64
)

// Client opens one websocket per subscription.
type Client struct {
	socketURL string
	tokens    auth.TokenProvider
	heartbeat time.Duration
	logger    *log.Logger
	dialer    *websocket.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithHeartbeat overrides the keepalive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a realtime client for the project at baseURL (http or https).
func New(baseURL, anonKey string, tokens auth.TokenProvider, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing realtime url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("unsupported realtime scheme %q", u.Scheme)
	}
	u.Path += "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", anonKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()

	c := &Client{
		socketURL: u.String(),
		tokens:    tokens,
		heartbeat: defaultHeartbeat,
		logger:    log.New(io.Discard),
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscribe joins a channel for the filter and returns once the server has
// accepted the join.
func (c *Client) Subscribe(ctx context.Context, f app.Filter) (app.Subscription, error) {
	if strings.TrimSpace(f.Table) == "" {
		return nil, errors.New("realtime filter needs a table")
	}

	conn, _, err := c.dialer.DialContext(ctx, c.socketURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to realtime: %w", err)
	}

	s := &subscription{
		conn:   conn,
		topic:  "realtime:" + f.Table + ":" + uuid.NewString(),
		events: make(chan app.Event, eventBuffer),
		done:   make(chan struct{}),
		logger: c.logger,
	}

	join := joinPayload{Config: joinConfig{PostgresChanges: []changeFilter{filterFor(f)}}}
	if c.tokens != nil {
		if tok, err := c.tokens.AccessToken(ctx); err == nil {
			join.AccessToken = tok
		}
	}
	if err := s.join(ctx, join); err != nil {
		conn.Close()
		return nil, err
	}

	go s.readLoop()
	go s.heartbeatLoop(c.heartbeat)
	c.logger.Debug("realtime subscribed", "topic", s.topic, "table", f.Table, "filter", f.Column)
	return s, nil
}

type subscription struct {
	conn   *websocket.Conn
	topic  string
	events chan app.Event
	done   chan struct{}
	logger *log.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *subscription) Events() <-chan app.Event { return s.events }

// Close leaves the channel and closes the socket. Events is closed once the
// read loop exits.
func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.send(s.topic, eventLeave, struct{}{})
		err = s.conn.Close()
	})
	return err
}

func (s *subscription) join(ctx context.Context, payload joinPayload) error {
	ref := uuid.NewString()
	if err := s.sendRef(s.topic, eventJoin, payload, ref); err != nil {
		return fmt.Errorf("joining %s: %w", s.topic, err)
	}

	deadline := time.Now().Add(joinTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("waiting for join reply: %w", err)
		}
		if msg.Event != eventReply || msg.Ref == nil || *msg.Ref != ref {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("parsing join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("join %s rejected: %s", s.topic, strings.TrimSpace(string(reply.Response)))
		}
		return nil
	}
}

func (s *subscription) readLoop() {
	defer close(s.events)
	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("realtime connection lost", "topic", s.topic, "err", err)
			}
			return
		}
		if msg.Topic != s.topic {
			continue
		}

		switch msg.Event {
		case eventChanges:
			ev, err := toEvent(msg.Payload)
			if err != nil {
				s.logger.Warn("bad realtime payload", "topic", s.topic, "err", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		case eventError, eventClose:
			s.logger.Warn("realtime channel closed by server", "topic", s.topic, "event", msg.Event)
			_ = s.conn.Close()
			return
		case eventSystem, eventReply:
		}
	}
}

func (s *subscription) heartbeatLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			if err := s.send(topicPhoenix, eventHeartbeat, struct{}{}); err != nil {
				s.logger.Debug("heartbeat failed", "topic", s.topic, "err", err)
				return
			}
		}
	}
}

func (s *subscription) send(topic, event string, payload any) error {
	return s.sendRef(topic, event, payload, uuid.NewString())
}

func (s *subscription) sendRef(topic, event string, payload any, ref string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(message{Topic: topic, Event: event, Payload: raw, Ref: &ref})
}
