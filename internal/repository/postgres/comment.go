package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

const commentColumns = "c.id, c.post_id, c.parent_id, c.author_id, c.text, c.likes, c.dislikes, c.created_at"

var voteColumns = map[model.Polarity]string{
	model.PolarityLike:    "likes",
	model.PolarityDislike: "dislikes",
}

type commentRepo struct {
	db *pgxpool.Pool
}

func newCommentRepo(db *pgxpool.Pool) store.Comment {
	return &commentRepo{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (*model.Comment, error) {
	var comment model.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.ParentID,
		&comment.AuthorID,
		&comment.Text,
		&comment.Likes,
		&comment.Dislikes,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &comment, nil
}

func collectComments(rows pgx.Rows) ([]*model.Comment, error) {
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now().UTC()
	comment.Likes = 0
	comment.Dislikes = 0
	if _, err := r.db.Exec(
		ctx,
		"INSERT INTO comments(id, post_id, parent_id, author_id, text, likes, dislikes, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8)",
		comment.ID,
		comment.PostID,
		comment.ParentID,
		comment.AuthorID,
		comment.Text,
		comment.Likes,
		comment.Dislikes,
		comment.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	return &comment, nil
}

func (r *commentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	comment, err := scanComment(r.db.QueryRow(
		ctx,
		"SELECT "+commentColumns+" FROM comments c WHERE c.id = $1",
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(
		ctx,
		"SELECT v.user_id, v.polarity FROM comment_votes v WHERE v.comment_id = $1 ORDER BY v.created_at",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID   uuid.UUID
			polarity string
		)
		if err := rows.Scan(&userID, &polarity); err != nil {
			return nil, err
		}

		if model.Polarity(polarity) == model.PolarityLike {
			comment.LikeVoters = append(comment.LikeVoters, userID)
		} else {
			comment.DislikeVoters = append(comment.DislikeVoters, userID)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	children, err := r.FindReplies(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		comment.Children = append(comment.Children, child.ID)
	}

	return comment, nil
}

func (r *commentRepo) FindPostComments(ctx context.Context, postID uuid.UUID) ([]*model.Comment, error) {
	rows, err := r.db.Query(
		ctx,
		"SELECT "+commentColumns+" FROM comments c WHERE c.post_id = $1 ORDER BY c.created_at ASC, c.id ASC",
		postID,
	)
	if err != nil {
		return nil, err
	}

	return collectComments(rows)
}

func (r *commentRepo) FindReplies(ctx context.Context, parentID uuid.UUID) ([]*model.Comment, error) {
	rows, err := r.db.Query(
		ctx,
		"SELECT "+commentColumns+" FROM comments c WHERE c.parent_id = $1 ORDER BY c.created_at ASC, c.id ASC",
		parentID,
	)
	if err != nil {
		return nil, err
	}

	return collectComments(rows)
}

func (r *commentRepo) FindAuthorComments(ctx context.Context, authorID uuid.UUID, limit int) ([]*model.Comment, error) {
	rows, err := r.db.Query(
		ctx,
		"SELECT "+commentColumns+" FROM comments c WHERE c.author_id = $1 ORDER BY c.created_at DESC LIMIT $2",
		authorID,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return collectComments(rows)
}

func (r *commentRepo) AddVoter(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	column, ok := voteColumns[polarity]
	if !ok {
		return nil, errors.New("unknown vote polarity")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Row lock serializes voters of the same comment.
	var id uuid.UUID
	if err := tx.QueryRow(ctx, "SELECT id FROM comments WHERE id = $1 FOR UPDATE", commentID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	tag, err := tx.Exec(
		ctx,
		"INSERT INTO comment_votes(comment_id, user_id, polarity) VALUES($1, $2, $3) ON CONFLICT (comment_id, user_id) DO NOTHING",
		commentID,
		userID,
		string(polarity),
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrAlreadyVoted
	}

	var counts model.VoteCounts
	if err := tx.QueryRow(
		ctx,
		`UPDATE comments SET `+column+` = (
			SELECT COUNT(*) FROM comment_votes v WHERE v.comment_id = $1 AND v.polarity = $2
		)
		WHERE id = $1
		RETURNING likes, dislikes`,
		commentID,
		string(polarity),
	).Scan(&counts.Likes, &counts.Dislikes); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &counts, nil
}

func (r *commentRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, "DELETE FROM comments WHERE id = ANY($1::uuid[])", idStrings(ids))
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (r *commentRepo) CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM comments WHERE post_id = $1", postID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
