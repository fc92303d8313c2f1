package reconcile

import (
	"sort"

	"github.com/CrestNiraj12/feedsync/domain"
)

// thread is the in-memory comment list of one post, in insertion order.
type thread struct {
	items []domain.Comment
	seen  map[string]struct{}
}

func (e *Engine) thread(postID string) *thread {
	t, ok := e.threads[postID]
	if !ok {
		t = &thread{seen: make(map[string]struct{})}
		e.threads[postID] = t
	}
	return t
}

// SeedComments loads the initial comment list for a post. Comments already
// merged from realtime are kept and duplicates are dropped. The comment count
// comes from the feed row and is not touched here.
func (e *Engine) SeedComments(postID string, comments []domain.Comment) {
	t := e.thread(postID)
	for _, c := range comments {
		if _, ok := t.seen[c.ID]; ok {
			continue
		}
		t.seen[c.ID] = struct{}{}
		t.items = append(t.items, c)
	}
}

// MergeRealtimeInsert adds a comment delivered by the realtime channel.
// It reports false when the id is already present, in which case nothing
// changes. This is the only place a comment count is incremented.
func (e *Engine) MergeRealtimeInsert(postID string, c domain.Comment) bool {
	t := e.thread(postID)
	if _, ok := t.seen[c.ID]; ok {
		e.logger.Debug("realtime comment suppressed", "post", postID, "comment", c.ID, "err", domain.ErrDuplicateSuppressed)
		return false
	}
	t.seen[c.ID] = struct{}{}
	t.items = append([]domain.Comment{c}, t.items...)

	if p, ok := e.posts[postID]; ok {
		p.CommentCount++
		e.posts[postID] = p
	}
	return true
}

// Comments returns a post's comments newest first. Ties keep insertion order.
func (e *Engine) Comments(postID string) []domain.Comment {
	t, ok := e.threads[postID]
	if !ok {
		return nil
	}
	out := make([]domain.Comment, len(t.items))
	copy(out, t.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ReleaseComments drops the cached comments of a post that left view.
func (e *Engine) ReleaseComments(postID string) {
	delete(e.threads, postID)
}
