package app

import (
	"context"

	"github.com/CrestNiraj12/feedsync/domain"
)

// FeedService reads posts and comments for display.
type FeedService interface {
	// FetchFeed returns the newest posts with their like and comment counts.
	FetchFeed(ctx context.Context, limit int) ([]domain.Post, error)

	// LikedByMe returns the subset of postIDs the user has liked.
	LikedByMe(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)

	// AuthorTotals returns all-time like totals keyed by user ID.
	AuthorTotals(ctx context.Context, userIDs []string) (map[string]int, error)

	// FetchComments returns a post's comments, oldest first.
	FetchComments(ctx context.Context, postID string) ([]domain.Comment, error)

	// FetchComment returns one comment with author details filled in.
	FetchComment(ctx context.Context, id string) (domain.Comment, error)
}

// LeaderboardService reads the like-aggregate table.
type LeaderboardService interface {
	// Top returns the users with the most likes, highest first.
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// NotificationService reads and acknowledges the viewer's notifications.
type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) error
}
