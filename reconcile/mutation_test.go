package reconcile

import (
	"testing"

	"github.com/CrestNiraj12/feedsync/domain"
)

func TestApplyDeltaRevert_RoundTrip(t *testing.T) {
	for count := 0; count < 4; count++ {
		for _, liked := range []bool{false, true} {
			before := domain.Post{ID: "p", LikeCount: count, LikedByMe: liked}
			m := PendingMutation{PostID: "p", Kind: likeKindFor(before)}

			after, m := applyDelta(before, m)
			if after.LikedByMe == before.LikedByMe {
				t.Fatalf("apply must flip likedByMe for %+v", before)
			}
			if after.LikeCount < 0 {
				t.Fatalf("apply produced negative count for %+v", before)
			}
			if got := revert(after, m); got != before {
				t.Fatalf("revert(apply(%+v)) = %+v", before, got)
			}
		}
	}
}

func TestApplyDelta_AlreadyInTargetState(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		liked bool
	}{
		{name: "like on liked", kind: KindLike, liked: true},
		{name: "unlike on not liked", kind: KindUnlike, liked: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := domain.Post{ID: "p", LikeCount: 2, LikedByMe: tc.liked}
			after, m := applyDelta(before, PendingMutation{Kind: tc.kind})
			if after != before || m.Delta != 0 {
				t.Fatalf("apply must not move a post already in the target state: %+v delta=%d", after, m.Delta)
			}
			if got := revert(after, m); got != before {
				t.Fatalf("revert = %+v, want %+v", got, before)
			}
		})
	}
}

func TestApplyDelta_IgnoresCommentKind(t *testing.T) {
	before := domain.Post{ID: "p", LikeCount: 2, LikedByMe: true}
	after, m := applyDelta(before, PendingMutation{Kind: KindAddComment})
	if after != before || m.Delta != 0 {
		t.Fatalf("comment mutation must not touch likes: %+v", after)
	}
	if revert(after, m) != before {
		t.Fatalf("revert of comment mutation must be a no-op")
	}
}

func TestKindAndLockStateStrings(t *testing.T) {
	if KindLike.String() != "like" || KindUnlike.String() != "unlike" || KindAddComment.String() != "add-comment" {
		t.Fatalf("unexpected kind strings")
	}
	if Idle.String() != "idle" || Pending.String() != "pending" {
		t.Fatalf("unexpected lock state strings")
	}
}
