package service

import "errors"

var (
	ErrInternal          = errors.New("internal server error")
	ErrInvalidID         = errors.New("invalid ID")
	ErrEmptyComment      = errors.New("comment cannot be empty")
	ErrInvalidPolarity   = errors.New("vote must be like or dislike")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrParentNotFound    = errors.New("parent comment not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("not authorized")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrFailedToFetchUser = errors.New("failed to fetch user")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindForbidden
	KindConflict
)

// Kind classifies an error returned by the service layer.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrEmptyComment), errors.Is(err, ErrInvalidPolarity):
		return KindInvalidInput
	case errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrParentNotFound), errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrAlreadyVoted):
		return KindConflict
	default:
		return KindInternal
	}
}
