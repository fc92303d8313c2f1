// Package postgres implements the app services directly against a
// self-hosted Postgres database, with LISTEN/NOTIFY standing in for the
// managed realtime service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CrestNiraj12/feedsync/domain"
)

// Store owns the connection pool. It satisfies app.RemoteData,
// app.FeedService, app.LeaderboardService, app.NotificationService and
// app.Realtime.
type Store struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) InsertLikeRow(ctx context.Context, postID, userID string) error {
	pid, uid, err := pair(postID, userID)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`,
		pid, uid,
	); err != nil {
		return fmt.Errorf("liking post: %w", classify(err))
	}
	return nil
}

func (s *Store) DeleteLikeRow(ctx context.Context, postID, userID string) error {
	pid, uid, err := pair(postID, userID)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		pid, uid,
	); err != nil {
		return fmt.Errorf("unliking post: %w", classify(err))
	}
	return nil
}

func (s *Store) InsertComment(ctx context.Context, postID, userID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.ErrEmptyComment
	}
	pid, uid, err := pair(postID, userID)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO post_comments (id, post_id, user_id, content) VALUES ($1, $2, $3, $4)`,
		uuid.New(), pid, uid, body,
	); err != nil {
		return fmt.Errorf("posting comment: %w", classify(err))
	}
	return nil
}

func (s *Store) FetchFeed(ctx context.Context, limit int) ([]domain.Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, user_id::text, coalesce(content, ''), coalesce(media_url, ''), created_at,
		        coalesce(username, ''), coalesce(avatar_url, ''), like_count, comment_count
		 FROM post_feed
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limitOrAll(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.MediaURL, &p.CreatedAt,
			&p.AuthorName, &p.AvatarURL, &p.LikeCount, &p.CommentCount); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		p.AuthorName = displayName(p.AuthorName)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	return posts, nil
}

func (s *Store) LikedByMe(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	pids, err := parseIDs(postIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT post_id::text FROM post_likes WHERE user_id = $1 AND post_id = ANY($2)`,
		uid, pids,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching likes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("reading likes: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (s *Store) AuthorTotals(ctx context.Context, userIDs []string) (map[string]int, error) {
	totals := make(map[string]int)
	if len(userIDs) == 0 {
		return totals, nil
	}
	ids, err := parseIDs(userIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, total_likes FROM user_like_totals WHERE user_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching author totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning total: %w", err)
		}
		totals[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading author totals: %w", err)
	}
	return totals, nil
}

const commentColumns = `id::text, post_id::text, user_id::text, content, created_at,
	coalesce(username, ''), coalesce(avatar_url, '')`

func scanComment(row pgx.CollectableRow) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.AuthorName, &c.AvatarURL)
	c.AuthorName = displayName(c.AuthorName)
	return c, err
}

func (s *Store) FetchComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	pid, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments_feed WHERE post_id = $1 ORDER BY created_at ASC`,
		pid,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}
	comments, err := pgx.CollectRows(rows, scanComment)
	if err != nil {
		return nil, fmt.Errorf("reading comments: %w", err)
	}
	return comments, nil
}

func (s *Store) FetchComment(ctx context.Context, id string) (domain.Comment, error) {
	cid, err := parseID(id)
	if err != nil {
		return domain.Comment{}, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments_feed WHERE id = $1`,
		cid,
	)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetching comment %s: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanComment)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("fetching comment %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id::text, coalesce(username, ''), coalesce(avatar_url, ''), total_likes
		 FROM user_like_totals
		 ORDER BY total_likes DESC, user_id
		 LIMIT $1`,
		limitOrAll(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}
	board, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LeaderboardEntry, error) {
		var e domain.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Username, &e.AvatarURL, &e.TotalLikes)
		e.Username = displayName(e.Username)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}
	return board, nil
}

func (s *Store) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, user_id::text, actor_id::text, coalesce(post_id::text, ''), type, message, read, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		uid, limitOrAll(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		var typ string
		err := row.Scan(&n.ID, &n.UserID, &n.ActorID, &n.PostID, &typ, &n.Message, &n.Read, &n.CreatedAt)
		n.Type = domain.NotificationType(typ)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading notifications: %w", err)
	}
	return list, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	uid, err := parseID(userID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read`,
		uid,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read`,
		uid,
	); err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return u, nil
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := parseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func pair(postID, userID string) (uuid.UUID, uuid.UUID, error) {
	pid, err := parseID(postID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return pid, uid, nil
}

// limitOrAll maps a non-positive limit to no limit (LIMIT NULL).
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "Unknown"
}

// classify marks permission failures as unauthorized so the UI can prompt
// for sign-in; other database errors pass through unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, pgErr.Message)
	}
	return err
}
