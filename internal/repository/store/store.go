package store

import (
	"context"
	"errors"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/google/uuid"
)

const RECENT_COMMENTS_LIMIT = 10

var (
	ErrNotFound                 = errors.New("record not found")
	ErrAlreadyVoted             = errors.New("user already voted on this comment")
	ErrFieldsNotAllowedToUpdate = errors.New("fields not allowed to update")
)

// AllowedUserFields lists the cached user columns a profile update may touch.
var AllowedUserFields = []string{"username", "profile_pic"}

func CheckUserUpdates(updates map[string]interface{}) error {
	allowed := make(map[string]struct{}, len(AllowedUserFields))
	for _, field := range AllowedUserFields {
		allowed[field] = struct{}{}
	}

	for field, value := range updates {
		if _, ok := allowed[field]; !ok {
			return ErrFieldsNotAllowedToUpdate
		}
		if _, ok := value.(string); !ok {
			return ErrFieldsNotAllowedToUpdate
		}
	}

	return nil
}

type Comment interface {
	// Create assigns ID and CreatedAt, and appends the new id to the
	// parent's children when ParentID is set.
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	// FindPostComments returns every comment of the post, oldest first.
	FindPostComments(ctx context.Context, postID uuid.UUID) ([]*model.Comment, error)
	// FindReplies returns the direct replies of a comment in creation order.
	FindReplies(ctx context.Context, parentID uuid.UUID) ([]*model.Comment, error)
	FindAuthorComments(ctx context.Context, authorID uuid.UUID, limit int) ([]*model.Comment, error)
	// AddVoter atomically adds userID to the polarity's voter set and bumps
	// its count. It fails with ErrAlreadyVoted when userID is in either set.
	AddVoter(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error)
}

type Post interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Post, error)
	IncrComments(ctx context.Context, id uuid.UUID, delta int64) error
	SetComments(ctx context.Context, id uuid.UUID, comments int64) error
}

type UserCache interface {
	// Create inserts the user or overwrites an existing record with the same id.
	Create(ctx context.Context, user model.CachedUser) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
}

type Store struct {
	Comment
	Post
	UserCache
}
