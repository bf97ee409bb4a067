package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// posts and cached_users mirror the post-service and user-service
// records; only the columns this service reads are declared.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cached_users(
		id UUID PRIMARY KEY,
		username TEXT NOT NULL,
		profile_pic TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS posts(
		id UUID PRIMARY KEY,
		author_id UUID NOT NULL,
		title TEXT NOT NULL,
		comments BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS comments(
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		parent_id UUID REFERENCES comments(id),
		author_id UUID NOT NULL,
		text TEXT NOT NULL,
		likes BIGINT NOT NULL DEFAULT 0,
		dislikes BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_id_created_at_idx ON comments(post_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS comments_parent_id_idx ON comments(parent_id)`,
	`CREATE INDEX IF NOT EXISTS comments_author_id_created_at_idx ON comments(author_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS comment_votes(
		comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		polarity TEXT NOT NULL CHECK (polarity IN ('like', 'dislike')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY(comment_id, user_id)
	)`,
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
