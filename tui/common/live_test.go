package common

import (
	"context"
	"errors"
	"testing"

	"github.com/CrestNiraj12/feedsync/app"
)

type chanSub struct{ ch chan app.Event }

func (s chanSub) Events() <-chan app.Event { return s.ch }
func (s chanSub) Close() error             { close(s.ch); return nil }

type stubRealtime struct {
	sub app.Subscription
	err error
	got app.Filter
}

func (r *stubRealtime) Subscribe(_ context.Context, f app.Filter) (app.Subscription, error) {
	r.got = f
	return r.sub, r.err
}

func TestSubscribe_ReportsResult(t *testing.T) {
	rt := &stubRealtime{sub: chanSub{ch: make(chan app.Event)}}
	msg := Subscribe(rt, "likes", app.Filter{Table: "post_likes"})().(SubscribedMsg)
	if msg.Key != "likes" || msg.Sub == nil || msg.Err != nil || rt.got.Table != "post_likes" {
		t.Fatalf("unexpected subscribe result: %+v", msg)
	}

	rt = &stubRealtime{err: errors.New("offline")}
	if msg := Subscribe(rt, "likes", app.Filter{})().(SubscribedMsg); msg.Err == nil {
		t.Fatalf("expected error to be reported")
	}
	if Subscribe(nil, "likes", app.Filter{}) != nil {
		t.Fatalf("nil realtime should yield no command")
	}
}

func TestWaitForEvent(t *testing.T) {
	sub := chanSub{ch: make(chan app.Event, 1)}
	sub.ch <- app.Event{Type: app.EventInsert, Table: "post_comments"}

	msg := WaitForEvent("comments:p1", sub)().(EventMsg)
	if msg.Key != "comments:p1" || msg.Event.Table != "post_comments" {
		t.Fatalf("unexpected event msg: %+v", msg)
	}

	_ = sub.Close()
	if _, ok := WaitForEvent("comments:p1", sub)().(SubscriptionClosedMsg); !ok {
		t.Fatalf("expected closed msg after channel close")
	}
}

func TestWaitForEvent_CarriesSubscription(t *testing.T) {
	sub := chanSub{ch: make(chan app.Event, 1)}
	sub.ch <- app.Event{Type: app.EventUpdate}

	if msg := WaitForEvent("likes", sub)().(EventMsg); msg.Sub != app.Subscription(sub) {
		t.Fatalf("event must name its subscription: %+v", msg)
	}
	_ = sub.Close()
	closed := WaitForEvent("likes", sub)().(SubscriptionClosedMsg)
	if closed.Key != "likes" || closed.Sub != app.Subscription(sub) {
		t.Fatalf("close must name its subscription: %+v", closed)
	}
}
