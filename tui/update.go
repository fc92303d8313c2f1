package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/feedsync/app"
	"github.com/CrestNiraj12/feedsync/infra/config"
	"github.com/CrestNiraj12/feedsync/reconcile"
	"github.com/CrestNiraj12/feedsync/tui/comments"
	"github.com/CrestNiraj12/feedsync/tui/common"
	"github.com/CrestNiraj12/feedsync/tui/compose"
	"github.com/CrestNiraj12/feedsync/tui/feed"
	"github.com/CrestNiraj12/feedsync/tui/notifications"
)

// Update handles messages and routes to the sub-models.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.feed, _ = a.feed.Update(msg)
		a.board, _ = a.board.Update(msg)
		a.notes, _ = a.notes.Update(msg)
		if a.thread {
			a.comments, _ = a.comments.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		// Each spinner ignores ticks carrying another spinner's ID.
		var cmds []tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		cmds = append(cmds, cmd)
		a.board, cmd = a.board.Update(msg)
		cmds = append(cmds, cmd)
		a.notes, cmd = a.notes.Update(msg)
		cmds = append(cmds, cmd)
		if a.thread {
			a.comments, cmd = a.comments.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case viewerMsg:
		a.viewer = msg.ID
		a.notes = a.notes.SetViewer(msg.ID)
		a.board = a.board.SetViewer(msg.ID)
		if msg.ID == "" {
			return a, nil
		}
		cmds := []tea.Cmd{
			a.notes.LoadUnread(),
			common.Subscribe(a.deps.Realtime, notifications.SubscriptionKey, a.notes.Filter()),
		}
		if a.active == notificationsView {
			a.notes, cmd = a.notes.Open()
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case common.StatusMsg:
		a.status = msg.String()
		return a, nil

	// --- Engine results ---

	case reconcile.LikeResultMsg:
		if err := a.deps.Engine.ResolveLike(msg); err != nil {
			return a, common.StatusErr(err)
		}
		return a, nil

	case reconcile.CommentResultMsg:
		err := a.deps.Engine.ResolveComment(msg)
		if a.thread {
			a.comments, _ = a.comments.Update(msg)
		}
		if err != nil {
			return a, common.StatusErr(err)
		}
		if msg.Err == nil {
			a.status = "Comment sent."
		}
		return a, nil

	case reconcile.TotalsLoadedMsg:
		if err := a.deps.Engine.ApplyTotals(msg); err != nil {
			a.logger.Warn("refreshing like totals", "err", err)
		}
		a.board, cmd = a.board.Update(msg)
		return a, cmd

	// --- Feed ---

	case feed.FeedLoadedMsg:
		a.feed, cmd = a.feed.Update(msg)
		return a, cmd

	case feed.OpenCommentsMsg:
		return a.openThread(msg.PostID)

	case feed.ComposeCommentMsg:
		return a.startCompose(msg.PostID)

	// --- Comments ---

	case comments.ComposeMsg:
		return a.startCompose(msg.PostID)

	case comments.BackMsg:
		return a.closeThread(), nil

	case comments.CommentsLoadedMsg, comments.CommentFetchedMsg:
		if a.thread {
			a.comments, cmd = a.comments.Update(msg)
		}
		return a, cmd

	case compose.DoneMsg:
		return a.finishCompose(msg)

	// --- Notifications ---

	case notifications.LoadedMsg, notifications.UnreadCountMsg, notifications.MarkedReadMsg:
		a.notes, cmd = a.notes.Update(msg)
		return a, cmd

	// --- Realtime ---

	case common.SubscribedMsg:
		return a.handleSubscribed(msg)

	case common.EventMsg:
		return a.handleEvent(msg)

	case common.SubscriptionClosedMsg:
		if a.subs[msg.Key] != msg.Sub {
			// A subscription that was already replaced or released.
			return a, nil
		}
		delete(a.subs, msg.Key)
		if _, ok := a.filterFor(msg.Key); !ok {
			return a, nil
		}
		a.logger.Warn("subscription closed, reopening", "key", msg.Key, "delay", resubscribeDelay)
		k := msg.Key
		return a, tea.Tick(resubscribeDelay, func(time.Time) tea.Msg { return resubscribeMsg{Key: k} })

	case resubscribeMsg:
		f, ok := a.filterFor(msg.Key)
		if !ok || a.subs[msg.Key] != nil {
			return a, nil
		}
		return a, common.Subscribe(a.deps.Realtime, msg.Key, f)
	}

	// Delegate anything else to the active sub-model.
	return a.updateActive(msg)
}

func (a App) updateActive(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.active {
	case feedView:
		a.feed, cmd = a.feed.Update(msg)
	case leaderboardView:
		a.board, cmd = a.board.Update(msg)
	case notificationsView:
		a.notes, cmd = a.notes.Update(msg)
	case commentsView:
		a.comments, cmd = a.comments.Update(msg)
	case composeView:
		a.compose, cmd = a.compose.Update(msg)
	}
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.Close()
		return a, tea.Quit
	}
	// The editor owns the terminal; typing in the composer owns the keys.
	if a.active == composeView || (a.active == commentsView && a.comments.Composing()) {
		return a.updateActive(msg)
	}

	a.status = ""
	if key.Matches(msg, a.keys.Quit) {
		a.Close()
		return a, tea.Quit
	}
	if a.active == commentsView {
		return a.updateActive(msg)
	}

	switch {
	case key.Matches(msg, a.keys.NextTab):
		return a.switchTab(a.relativeTab(1))
	case key.Matches(msg, a.keys.PrevTab):
		return a.switchTab(a.relativeTab(-1))
	case key.Matches(msg, a.keys.Feed):
		return a.switchTab(feedView)
	case key.Matches(msg, a.keys.Leaderboard):
		return a.switchTab(leaderboardView)
	case key.Matches(msg, a.keys.Notifications):
		return a.switchTab(notificationsView)
	}
	return a.updateActive(msg)
}

func (a App) relativeTab(step int) activeView {
	for i, v := range tabOrder {
		if v == a.tab {
			n := len(tabOrder)
			return tabOrder[((i+step)%n+n)%n]
		}
	}
	return feedView
}

func (a App) switchTab(to activeView) (tea.Model, tea.Cmd) {
	if to == a.tab {
		return a, nil
	}
	var cmds []tea.Cmd
	if a.tab == notificationsView {
		a.notes = a.notes.Close()
	}
	a.tab, a.active = to, to
	if to == notificationsView {
		var cmd tea.Cmd
		a.notes, cmd = a.notes.Open()
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.saveTab())
	return a, tea.Batch(cmds...)
}

func (a App) saveTab() tea.Cmd {
	path := a.deps.UIStatePath
	if path == "" {
		return nil
	}
	st := config.UIState{Tab: tabNames[a.tab]}
	logger := a.logger
	return func() tea.Msg {
		if err := config.SaveUIState(path, st); err != nil {
			logger.Warn("saving ui state", "err", err)
		}
		return nil
	}
}

// --- Comment thread ---

func (a App) openThread(postID string) (tea.Model, tea.Cmd) {
	if a.thread {
		a = a.closeThread()
	}
	a.comments = comments.New(a.deps.Engine, a.deps.Feed, postID).SetSize(a.width, a.height)
	a.thread = true
	a.active = commentsView
	a.status = ""
	return a, tea.Batch(
		a.comments.Init(),
		common.Subscribe(a.deps.Realtime, comments.SubscriptionKey(postID), comments.Filter(postID)),
	)
}

func (a App) closeThread() App {
	if !a.thread {
		return a
	}
	postID := a.comments.PostID()
	k := comments.SubscriptionKey(postID)
	if sub, ok := a.subs[k]; ok {
		if err := sub.Close(); err != nil {
			a.logger.Debug("closing subscription", "key", k, "err", err)
		}
		delete(a.subs, k)
	}
	a.deps.Engine.ReleaseComments(postID)
	a.thread = false
	if a.active == commentsView {
		a.active = a.tab
	}
	return a
}

// --- Editor ---

func (a App) startCompose(postID string) (tea.Model, tea.Cmd) {
	if a.deps.Editor == nil {
		return a, common.Status("No editor configured.")
	}
	author := ""
	if p, ok := a.deps.Engine.Post(postID); ok {
		author = p.AuthorName
	}
	a.composer = a.active
	a.active = composeView
	a.status = ""
	a.compose = compose.New(a.deps.Editor, postID, author, a.deps.Engine.Draft(postID))
	return a, a.compose.Init()
}

func (a App) finishCompose(msg compose.DoneMsg) (tea.Model, tea.Cmd) {
	a.active = a.composer
	if msg.Err != nil {
		return a, common.StatusErr(msg.Err)
	}
	if msg.Content == "" {
		a.status = "Cancelled."
		return a, nil
	}

	if a.thread && a.comments.PostID() == msg.PostID {
		var cmd tea.Cmd
		a.comments, cmd = a.comments.Submit(msg.Content)
		a.status = "Sending..."
		return a, cmd
	}
	cmd, err := a.deps.Engine.SubmitComment(context.Background(), msg.PostID, msg.Content)
	if err != nil {
		// Keep the text so a retry after signing in does not lose it.
		a.deps.Engine.SetDraft(msg.PostID, msg.Content)
		return a, common.StatusErr(err)
	}
	a.status = "Sending..."
	return a, cmd
}

// --- Realtime ---

// filterFor returns the subscription the app currently wants under key.
func (a App) filterFor(k string) (app.Filter, bool) {
	switch {
	case k == likesKey:
		return likesFilter(), true
	case k == notifications.SubscriptionKey:
		return a.notes.Filter(), a.viewer != ""
	case a.thread && k == comments.SubscriptionKey(a.comments.PostID()):
		return comments.Filter(a.comments.PostID()), true
	}
	return app.Filter{}, false
}

func (a App) handleSubscribed(msg common.SubscribedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.logger.Warn("realtime subscribe failed", "key", msg.Key, "err", msg.Err)
		a.status = fmt.Sprintf("Live updates unavailable (%s).", msg.Key)
		k := msg.Key
		return a, tea.Tick(resubscribeDelay, func(time.Time) tea.Msg { return resubscribeMsg{Key: k} })
	}
	if _, wanted := a.filterFor(msg.Key); !wanted || a.subs[msg.Key] != nil {
		// The thread closed while the subscription was opening.
		if err := msg.Sub.Close(); err != nil {
			a.logger.Debug("closing subscription", "key", msg.Key, "err", err)
		}
		return a, nil
	}
	a.subs[msg.Key] = msg.Sub
	a.logger.Debug("subscribed", "key", msg.Key)
	return a, common.WaitForEvent(msg.Key, msg.Sub)
}

func (a App) handleEvent(msg common.EventMsg) (tea.Model, tea.Cmd) {
	sub, ok := a.subs[msg.Key]
	if !ok || sub != msg.Sub {
		return a, nil
	}
	next := common.WaitForEvent(msg.Key, sub)

	var cmd tea.Cmd
	switch {
	case msg.Key == likesKey:
		cmd = a.deps.Engine.MergeRealtimeLikeTotals(a.deps.Leaderboard, a.deps.Feed)
	case msg.Key == notifications.SubscriptionKey:
		a.notes, cmd = a.notes.Push(msg.Event)
	case a.thread && msg.Key == comments.SubscriptionKey(a.comments.PostID()):
		cmd = comments.FetchComment(a.deps.Feed, a.comments.PostID(), msg.Event)
	}
	return a, tea.Batch(cmd, next)
}
