package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
)

// remoteData implements app.RemoteData over the post_likes and
// post_comments tables.
type remoteData struct {
	client *Client
}

// NewRemoteData creates the write path used by the reconciliation engine.
func NewRemoteData(client *Client) *remoteData {
	return &remoteData{client: client}
}

func (s *remoteData) InsertLikeRow(ctx context.Context, postID, userID string) error {
	row := map[string]string{"post_id": postID, "user_id": userID}
	_, _, err := s.client.run(ctx, "post_likes", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Insert(row, false, "", "minimal", "")
	})
	if err != nil {
		return fmt.Errorf("liking post: %w", err)
	}
	return nil
}

func (s *remoteData) DeleteLikeRow(ctx context.Context, postID, userID string) error {
	_, _, err := s.client.run(ctx, "post_likes", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Delete("minimal", "").Eq("post_id", postID).Eq("user_id", userID)
	})
	if err != nil {
		return fmt.Errorf("unliking post: %w", err)
	}
	return nil
}

func (s *remoteData) InsertComment(ctx context.Context, postID, userID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.ErrEmptyComment
	}
	row := map[string]string{"post_id": postID, "user_id": userID, "content": body}
	_, _, err := s.client.run(ctx, "post_comments", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Insert(row, false, "", "minimal", "")
	})
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	return nil
}
