package domain

import "errors"

var (
	// ErrAuthRequired indicates an action was attempted with no signed-in viewer.
	ErrAuthRequired = errors.New("sign in required")

	// ErrMutationRejected indicates the backend refused or failed a write.
	// Local optimistic state has already been unwound when this is returned.
	ErrMutationRejected = errors.New("change was not saved")

	// ErrDuplicateSuppressed marks an ignored duplicate: a realtime insert whose
	// id is already present, or a toggle while one is in flight. Never shown.
	ErrDuplicateSuppressed = errors.New("duplicate suppressed")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyComment indicates the user submitted a blank comment.
	ErrEmptyComment = errors.New("comment cannot be empty")
)
