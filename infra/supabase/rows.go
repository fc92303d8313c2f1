package supabase

import (
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/CrestNiraj12/feedsync/domain"
)

// feedRow is a row of the post_feed view.
type feedRow struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Content      *string `json:"content"`
	MediaURL     *string `json:"media_url"`
	CreatedAt    string  `json:"created_at"`
	Username     *string `json:"username"`
	AvatarURL    *string `json:"avatar_url"`
	LikeCount    int     `json:"like_count"`
	CommentCount int     `json:"comment_count"`
}

// commentRow is a row of the comments_feed view.
type commentRow struct {
	ID        string  `json:"id"`
	PostID    string  `json:"post_id"`
	UserID    string  `json:"user_id"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// totalRow is a row of the user_like_totals view.
type totalRow struct {
	UserID     string  `json:"user_id"`
	Username   *string `json:"username"`
	AvatarURL  *string `json:"avatar_url"`
	TotalLikes int     `json:"total_likes"`
}

type notificationRow struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	ActorID   string  `json:"actor_id"`
	PostID    *string `json:"post_id"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"created_at"`
}

func (r feedRow) post() domain.Post {
	return domain.Post{
		ID:           r.ID,
		AuthorID:     r.UserID,
		AuthorName:   displayName(r.Username),
		AvatarURL:    deref(r.AvatarURL),
		Content:      sanitizeForTerminal(deref(r.Content)),
		MediaURL:     deref(r.MediaURL),
		CreatedAt:    parseTime(r.CreatedAt),
		LikeCount:    max(0, r.LikeCount),
		CommentCount: max(0, r.CommentCount),
	}
}

func (r commentRow) comment() domain.Comment {
	return domain.Comment{
		ID:         r.ID,
		PostID:     r.PostID,
		AuthorID:   r.UserID,
		AuthorName: displayName(r.Username),
		AvatarURL:  deref(r.AvatarURL),
		Body:       sanitizeForTerminal(r.Content),
		CreatedAt:  parseTime(r.CreatedAt),
	}
}

func (r totalRow) entry() domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:     r.UserID,
		Username:   displayName(r.Username),
		AvatarURL:  deref(r.AvatarURL),
		TotalLikes: max(0, r.TotalLikes),
	}
}

func (r notificationRow) notification() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		ActorID:   r.ActorID,
		PostID:    deref(r.PostID),
		Type:      domain.NotificationType(r.Type),
		Message:   sanitizeForTerminal(r.Message),
		Read:      r.Read,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func displayName(username *string) string {
	if name := sanitizeForTerminal(deref(username)); name != "" {
		return name
	}
	return "Unknown"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseTime accepts Postgres timestamptz output with or without a zone
// offset. Unparseable values come back as the zero time.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// sanitizeForTerminal strips escape sequences and control characters from
// user-supplied text, keeping newlines and tabs.
func sanitizeForTerminal(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.Map(func(r rune) rune {
			if r == '\t' {
				return r
			}
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, ansi.Strip(ln))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
