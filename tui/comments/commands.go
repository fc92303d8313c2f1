package comments

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
)

const loadTimeout = 15 * time.Second

func (m Model) fetchComments() tea.Cmd {
	feed := m.feed
	postID := m.postID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		list, err := feed.FetchComments(ctx, postID)
		return CommentsLoadedMsg{PostID: postID, Comments: list, Err: err}
	}
}

// FetchComment loads a comment announced by a realtime insert event.
// Events without an id are dropped.
func FetchComment(feed app.FeedService, postID string, ev app.Event) tea.Cmd {
	id := ev.StringField("id")
	if id == "" || feed == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		c, err := feed.FetchComment(ctx, id)
		if err == nil && c.PostID == "" {
			c.PostID = postID
		}
		return CommentFetchedMsg{PostID: postID, Comment: c, Err: err}
	}
}

// Filter is the realtime subscription for new comments on a post.
func Filter(postID string) app.Filter {
	return app.Filter{
		Table:  "post_comments",
		Event:  app.EventInsert,
		Column: "post_id",
		Value:  postID,
	}
}

// SubscriptionKey names the realtime subscription of a thread.
func SubscriptionKey(postID string) string {
	return "comments:" + postID
}
