package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
)

// feedService implements app.FeedService using the post_feed and
// comments_feed views.
type feedService struct {
	client *Client
}

// NewFeedService creates a FeedService backed by Supabase.
func NewFeedService(client *Client) *feedService {
	return &feedService{client: client}
}

func (s *feedService) FetchFeed(ctx context.Context, limit int) ([]domain.Post, error) {
	data, _, err := s.client.run(ctx, "post_feed", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		f := q.Select("*", "", false).Order("created_at", &postgrest.OrderOpts{Ascending: false})
		if limit > 0 {
			f = f.Limit(limit, "")
		}
		return f
	})
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	var rows []feedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.post())
	}
	return posts, nil
}

func (s *feedService) LikedByMe(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}

	data, _, err := s.client.run(ctx, "post_likes", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("post_id", "", false).Eq("user_id", userID).In("post_id", postIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching likes: %w", err)
	}

	var rows []struct {
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing likes: %w", err)
	}
	for _, r := range rows {
		liked[r.PostID] = true
	}
	return liked, nil
}

func (s *feedService) AuthorTotals(ctx context.Context, userIDs []string) (map[string]int, error) {
	totals := make(map[string]int)
	if len(userIDs) == 0 {
		return totals, nil
	}

	data, _, err := s.client.run(ctx, "user_like_totals", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("user_id,total_likes", "", false).In("user_id", userIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching author totals: %w", err)
	}

	var rows []totalRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing author totals: %w", err)
	}
	for _, r := range rows {
		totals[r.UserID] = max(0, r.TotalLikes)
	}
	return totals, nil
}

func (s *feedService) FetchComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	data, _, err := s.client.run(ctx, "comments_feed", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "", false).Eq("post_id", postID).Order("created_at", &postgrest.OrderOpts{Ascending: true})
	})
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}

	var rows []commentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.comment())
	}
	return comments, nil
}

func (s *feedService) FetchComment(ctx context.Context, id string) (domain.Comment, error) {
	data, _, err := s.client.run(ctx, "comments_feed", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "", false).Eq("id", id).Single()
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetching comment %s: %w", id, err)
	}

	var row commentRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domain.Comment{}, fmt.Errorf("parsing comment: %w", err)
	}
	return row.comment(), nil
}
