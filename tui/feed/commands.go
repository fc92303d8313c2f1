package feed

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/domain"
)

const loadTimeout = 20 * time.Second

// fetchFeed loads posts, then the viewer's likes and the authors' totals
// for them. The secondary lookups are best effort: a failure leaves the
// defaults (not liked, no badge) in place.
func (m Model) fetchFeed(reqSeq int) tea.Cmd {
	feed := m.feed
	auth := m.auth
	limit := m.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		posts, err := feed.FetchFeed(ctx, limit)
		if err != nil {
			return FeedLoadedMsg{Err: err, ReqSeq: reqSeq}
		}

		postIDs := make([]string, 0, len(posts))
		authorIDs := make([]string, 0, len(posts))
		seen := make(map[string]struct{}, len(posts))
		for _, p := range posts {
			postIDs = append(postIDs, p.ID)
			if _, ok := seen[p.AuthorID]; ok || p.AuthorID == "" {
				continue
			}
			seen[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}

		if viewer := viewerID(ctx, auth); viewer != "" {
			if liked, err := feed.LikedByMe(ctx, viewer, postIDs); err == nil {
				posts = markLiked(posts, liked)
			}
		}

		authors, err := feed.AuthorTotals(ctx, authorIDs)
		if err != nil {
			authors = nil
		}
		return FeedLoadedMsg{Posts: posts, Authors: authors, ReqSeq: reqSeq}
	}
}

func viewerID(ctx context.Context, auth app.AuthService) string {
	if auth == nil {
		return ""
	}
	id, err := auth.CurrentUserID(ctx)
	if err != nil {
		return ""
	}
	return id
}

func markLiked(posts []domain.Post, liked map[string]bool) []domain.Post {
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		p.LikedByMe = liked[p.ID]
		out[i] = p
	}
	return out
}
