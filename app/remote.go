package app

import "context"

// RemoteData is the relational store the reconciliation engine writes to.
// Each call is attempted once and never retried.
type RemoteData interface {
	// InsertLikeRow records that userID likes postID.
	InsertLikeRow(ctx context.Context, postID, userID string) error

	// DeleteLikeRow removes userID's like on postID.
	DeleteLikeRow(ctx context.Context, postID, userID string) error

	// InsertComment adds a comment. The new row is observed through the
	// realtime channel, not through this call.
	InsertComment(ctx context.Context, postID, userID, body string) error
}
