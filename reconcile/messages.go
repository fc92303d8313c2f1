package reconcile

import "github.com/CrestNiraj12/feedsync/domain"

// LikeResultMsg reports the outcome of a like/unlike write.
type LikeResultMsg struct {
	PostID string
	Seq    int
	Err    error
}

// CommentResultMsg reports the outcome of a comment insert.
type CommentResultMsg struct {
	PostID string
	Seq    int
	Err    error
}

// TotalsLoadedMsg carries a wholesale refetch of the like aggregates.
type TotalsLoadedMsg struct {
	Board   []domain.LeaderboardEntry
	Authors map[string]int
	Err     error
}
