package dto

import "github.com/google/uuid"

// UserID is optional in every body: the authenticated user is used when
// it is omitted, and a mismatch is rejected.

type CreateCommentRequest struct {
	PostID uuid.UUID `json:"postId"`
	UserID uuid.UUID `json:"userId"`
	Text   string    `json:"text"`
}

type ReplyCommentRequest struct {
	UserID uuid.UUID `json:"userId"`
	Text   string    `json:"text"`
}

type UserRequest struct {
	UserID uuid.UUID `json:"userId"`
}
