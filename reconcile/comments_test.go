package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/CrestNiraj12/feedsync/domain"
)

func TestMergeRealtimeInsert_IdempotentAcrossDuplicates(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	e.Track([]domain.Post{{ID: "p1", CommentCount: 2}})

	base := time.Unix(1_700_000_000, 0)
	ids := []string{"a", "b", "a", "c", "b", "b", "a"}
	novel := 0
	for i, id := range ids {
		if e.MergeRealtimeInsert("p1", comment(id, base.Add(time.Duration(i)*time.Second), "x")) {
			novel++
		}
	}

	if novel != 3 {
		t.Fatalf("expected 3 novel inserts, got %d", novel)
	}
	counts := map[string]int{}
	for _, c := range e.Comments("p1") {
		counts[c.ID]++
	}
	for _, id := range []string{"a", "b", "c"} {
		if counts[id] != 1 {
			t.Fatalf("comment %s present %d times", id, counts[id])
		}
	}
	if p := mustPost(t, e, "p1"); p.CommentCount != 5 {
		t.Fatalf("expected count 2+3=5, got %d", p.CommentCount)
	}
}

func TestComments_NewestFirstRegardlessOfArrival(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	base := time.Unix(1_700_000_000, 0)

	// Confirmations arrive out of order.
	e.MergeRealtimeInsert("p1", comment("c2", base.Add(2*time.Minute), "second"))
	e.MergeRealtimeInsert("p1", comment("c3", base.Add(3*time.Minute), "third"))
	e.MergeRealtimeInsert("p1", comment("c1", base.Add(1*time.Minute), "first"))

	got := e.Comments("p1")
	want := []string{"c3", "c2", "c1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s want %s (%+v)", i, got[i].ID, id, got)
		}
	}
}

func TestSeedComments_DedupsAgainstRealtime(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	e.Track([]domain.Post{{ID: "p1", CommentCount: 2}})
	base := time.Unix(1_700_000_000, 0)

	e.MergeRealtimeInsert("p1", comment("c2", base.Add(time.Minute), "live"))
	e.SeedComments("p1", []domain.Comment{
		comment("c1", base, "old"),
		comment("c2", base.Add(time.Minute), "live"),
	})

	if got := len(e.Comments("p1")); got != 2 {
		t.Fatalf("expected 2 comments, got %d", got)
	}
	if p := mustPost(t, e, "p1"); p.CommentCount != 3 {
		t.Fatalf("seed must not change count, got %d", p.CommentCount)
	}
}

func TestMergeRealtimeInsert_UntrackedPostKeepsList(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	if !e.MergeRealtimeInsert("ghost", comment("c1", time.Now(), "x")) {
		t.Fatalf("first insert should be novel")
	}
	if len(e.Comments("ghost")) != 1 {
		t.Fatalf("comment should be listed even without a tracked post")
	}
	if _, ok := e.Post("ghost"); ok {
		t.Fatalf("merge must not invent a post")
	}
}

func TestReleaseComments(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	e.MergeRealtimeInsert("p1", comment("c1", time.Now(), "x"))
	e.ReleaseComments("p1")
	if e.Comments("p1") != nil {
		t.Fatalf("expected released comments to be gone")
	}
}

func TestMergeRealtimeInsert_ManyDistinct(t *testing.T) {
	e := newTestEngine(&stubRemote{})
	e.Track([]domain.Post{{ID: "p1"}})
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("c%d", i%20)
		e.MergeRealtimeInsert("p1", comment(id, time.Unix(int64(i), 0), "x"))
	}
	if p := mustPost(t, e, "p1"); p.CommentCount != 20 {
		t.Fatalf("expected 20 distinct comments counted, got %d", p.CommentCount)
	}
}
