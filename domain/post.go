package domain

import "time"

// Post is a feed entry. Likes and comments both attach to it.
type Post struct {
	ID           string
	AuthorID     string
	AuthorName   string
	AvatarURL    string
	Content      string
	MediaURL     string
	CreatedAt    time.Time
	LikeCount    int
	LikedByMe    bool // Derived from a post_likes row for (post, viewer)
	CommentCount int
}

// Comment is a single reply on a post.
type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	AuthorName string
	AvatarURL  string
	Body       string
	CreatedAt  time.Time
}

// LeaderboardEntry is one row of the all-time like totals.
type LeaderboardEntry struct {
	UserID     string
	Username   string
	AvatarURL  string
	TotalLikes int
}

// NotificationType is the activity that produced a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

// Notification tells a user someone liked or commented on their post.
type Notification struct {
	ID        string
	UserID    string
	ActorID   string
	PostID    string
	Type      NotificationType
	Message   string
	Read      bool
	CreatedAt time.Time
}
