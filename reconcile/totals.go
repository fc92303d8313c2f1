package reconcile

import (
	"context"
	"fmt"
	"maps"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
)

// LeaderboardLimit is how many leaderboard rows are refetched.
const LeaderboardLimit = 100

// MergeRealtimeLikeTotals returns the command that refetches the like
// aggregates wholesale after any change to the like table. Either service
// may be nil to skip that half.
func (e *Engine) MergeRealtimeLikeTotals(board app.LeaderboardService, feed app.FeedService) tea.Cmd {
	authorIDs := e.authorIDs()
	timeout := e.lockTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var msg TotalsLoadedMsg
		if board != nil {
			rows, err := board.Top(ctx, LeaderboardLimit)
			if err != nil {
				return TotalsLoadedMsg{Err: fmt.Errorf("fetching leaderboard: %w", err)}
			}
			msg.Board = append([]domain.LeaderboardEntry{}, rows...)
		}
		if feed != nil && len(authorIDs) > 0 {
			totals, err := feed.AuthorTotals(ctx, authorIDs)
			if err != nil {
				return TotalsLoadedMsg{Err: fmt.Errorf("fetching author totals: %w", err)}
			}
			msg.Authors = make(map[string]int, len(totals))
			maps.Copy(msg.Authors, totals)
		}
		return msg
	}
}

// ApplyTotals replaces the aggregates with a refetch result. A failed
// refetch leaves the previous values in place.
func (e *Engine) ApplyTotals(msg TotalsLoadedMsg) error {
	if msg.Err != nil {
		return msg.Err
	}
	if msg.Board != nil {
		e.board = msg.Board
	}
	if msg.Authors != nil {
		e.authors = msg.Authors
	}
	return nil
}

// Leaderboard returns the last fetched leaderboard rows.
func (e *Engine) Leaderboard() []domain.LeaderboardEntry {
	return e.board
}

// AuthorTotal returns the last fetched like total for a user.
func (e *Engine) AuthorTotal(userID string) int {
	return e.authors[userID]
}

func (e *Engine) authorIDs() []string {
	seen := make(map[string]struct{}, len(e.order))
	ids := make([]string, 0, len(e.order))
	for _, id := range e.order {
		a := e.posts[id].AuthorID
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		ids = append(ids, a)
	}
	return ids
}

