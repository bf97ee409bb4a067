package postgres

import (
	"context"
	"errors"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) store.Post {
	return &postRepo{
		db: db,
	}
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.db.QueryRow(
		ctx,
		"SELECT p.id, p.author_id, p.title, p.comments FROM posts p WHERE p.id = $1",
		id,
	).Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Comments,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Post, error) {
	posts := make(map[uuid.UUID]*model.Post, len(ids))
	if len(ids) == 0 {
		return posts, nil
	}

	rows, err := r.db.Query(
		ctx,
		"SELECT p.id, p.author_id, p.title, p.comments FROM posts p WHERE p.id = ANY($1::uuid[])",
		idStrings(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.Title,
			&post.Comments,
		); err != nil {
			return nil, err
		}
		posts[post.ID] = &post
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) IncrComments(ctx context.Context, id uuid.UUID, delta int64) error {
	tag, err := r.db.Exec(ctx, "UPDATE posts SET comments = comments + $1 WHERE id = $2", delta, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (r *postRepo) SetComments(ctx context.Context, id uuid.UUID, comments int64) error {
	tag, err := r.db.Exec(ctx, "UPDATE posts SET comments = $1 WHERE id = $2", comments, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
