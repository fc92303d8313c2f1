package reconcile

import (
	"time"

	"github.com/CrestNiraj12/feedsync/domain"
)

// Kind is the user action behind a pending mutation.
type Kind int

const (
	KindLike Kind = iota
	KindUnlike
	KindAddComment
)

func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindUnlike:
		return "unlike"
	case KindAddComment:
		return "add-comment"
	}
	return "unknown"
}

// PendingMutation is a local change that the backend has not confirmed yet.
type PendingMutation struct {
	PostID    string
	Kind      Kind
	AppliedAt time.Time
	Seq       int

	// InFlight is true for as long as the engine holds the record. A settled
	// or expired mutation is dropped from the engine, never kept with
	// InFlight false.
	InFlight bool

	// Delta is the like-count change actually applied, after clamping at zero.
	// Reverting subtracts exactly this.
	Delta int

	// LikedBefore is the viewer's like state before the mutation was applied.
	LikedBefore bool

	// Body is the trimmed comment text for KindAddComment.
	Body string
}

// LockState is the like-path state of a single post.
type LockState int

const (
	Idle LockState = iota
	Pending
)

func (s LockState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// likeKindFor picks the mutation that flips the like the viewer sees.
func likeKindFor(p domain.Post) Kind {
	if p.LikedByMe {
		return KindUnlike
	}
	return KindLike
}

// applyDelta moves p to the like state m.Kind asks for and records the
// applied delta on m. A post already in that state keeps its count.
func applyDelta(p domain.Post, m PendingMutation) (domain.Post, PendingMutation) {
	m.Delta = 0
	m.LikedBefore = p.LikedByMe
	switch m.Kind {
	case KindLike:
		if !p.LikedByMe {
			m.Delta = 1
		}
		p.LikedByMe = true
	case KindUnlike:
		if p.LikedByMe && p.LikeCount > 0 {
			m.Delta = -1
		}
		p.LikedByMe = false
	default:
		return p, m
	}
	p.LikeCount = max(0, p.LikeCount+m.Delta)
	return p, m
}

// revert is the inverse of applyDelta for the same mutation.
func revert(p domain.Post, m PendingMutation) domain.Post {
	if m.Kind != KindLike && m.Kind != KindUnlike {
		return p
	}
	p.LikedByMe = m.LikedBefore
	p.LikeCount = max(0, p.LikeCount-m.Delta)
	return p
}
