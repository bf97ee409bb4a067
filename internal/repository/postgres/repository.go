package postgres

import (
	"context"

	"github.com/BloggingApp/comment-service/internal/config"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, cfg.DSN())
}

func New(db *pgxpool.Pool) *store.Store {
	return &store.Store{
		Comment:   newCommentRepo(db),
		Post:      newPostRepo(db),
		UserCache: newUserCacheRepo(db),
	}
}

// idStrings lets id lists be bound as $n::uuid[] parameters.
func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
