package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
)

type leaderboardService struct {
	client *Client
}

// NewLeaderboardService creates a LeaderboardService over user_like_totals.
func NewLeaderboardService(client *Client) *leaderboardService {
	return &leaderboardService{client: client}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	data, _, err := s.client.run(ctx, "user_like_totals", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		f := q.Select("*", "", false).Order("total_likes", &postgrest.OrderOpts{Ascending: false})
		if limit > 0 {
			f = f.Limit(limit, "")
		}
		return f
	})
	if err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}

	var rows []totalRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing leaderboard: %w", err)
	}

	board := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		board = append(board, r.entry())
	}
	return board, nil
}
