package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"github.com/CrestNiraj12/feedsync/domain"
)

type notificationService struct {
	client *Client
}

// NewNotificationService creates a NotificationService over the
// notifications table.
func NewNotificationService(client *Client) *notificationService {
	return &notificationService{client: client}
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	data, _, err := s.client.run(ctx, "notifications", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		f := q.Select("*", "", false).Eq("user_id", userID).Order("created_at", &postgrest.OrderOpts{Ascending: false})
		if limit > 0 {
			f = f.Limit(limit, "")
		}
		return f
	})
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	var rows []notificationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.notification())
	}
	return out, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	_, n, err := s.client.run(ctx, "notifications", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return unread(q.Select("*", "exact", true), userID)
	})
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return int(n), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	_, _, err := s.client.run(ctx, "notifications", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return unread(q.Update(map[string]bool{"read": true}, "minimal", ""), userID)
	})
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

func unread(f *postgrest.FilterBuilder, userID string) *postgrest.FilterBuilder {
	return f.Eq("user_id", userID).Eq("read", "false")
}
