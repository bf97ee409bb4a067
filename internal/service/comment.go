package service

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/rabbitmq"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/BloggingApp/comment-service/internal/sanitize"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const NOTIFICATION_TIMEOUT = 5 * time.Second

type commentService struct {
	logger    *zap.Logger
	repo      *repository.Repository
	userCache UserCache
	broker    Broker
}

func newCommentService(logger *zap.Logger, repo *repository.Repository, userCache UserCache, broker Broker) Comment {
	return &commentService{
		logger:    logger,
		repo:      repo,
		userCache: userCache,
		broker:    broker,
	}
}

func (s *commentService) List(ctx context.Context, postID uuid.UUID, newestFirst bool) ([]*tree.Node, error) {
	if postID == uuid.Nil {
		return nil, ErrInvalidID
	}

	comments, err := s.repo.Store.Comment.FindPostComments(ctx, postID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find post(%s) comments: %s", postID.String(), err.Error())
		return nil, ErrInternal
	}

	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := s.userCache.FindMany(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	return tree.Build(comments, authors, newestFirst), nil
}

func (s *commentService) Create(ctx context.Context, postID uuid.UUID, authorID uuid.UUID, text string) (*tree.Node, error) {
	if postID == uuid.Nil || authorID == uuid.Nil {
		return nil, ErrInvalidID
	}

	cleaned, ok := sanitize.Comment(text)
	if !ok {
		return nil, ErrEmptyComment
	}

	post, err := s.repo.Store.Post.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to find post(%s): %s", postID.String(), err.Error())
		return nil, ErrInternal
	}

	author, err := s.userCache.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Store.Comment.Create(ctx, model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     cleaned,
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to create comment on post(%s): %s", postID.String(), err.Error())
		return nil, ErrInternal
	}

	s.incrPostComments(ctx, postID, 1)
	commentsCreated.WithLabelValues("comment").Inc()

	if post.AuthorID != authorID {
		go s.notifyPostOwner(post, created)
	}

	return tree.Format(created, author), nil
}

func (s *commentService) Reply(ctx context.Context, parentID uuid.UUID, authorID uuid.UUID, text string) (*tree.Node, error) {
	if parentID == uuid.Nil || authorID == uuid.Nil {
		return nil, ErrInvalidID
	}

	cleaned, ok := sanitize.Comment(text)
	if !ok {
		return nil, ErrEmptyComment
	}

	parent, err := s.findComment(ctx, parentID)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	author, err := s.userCache.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Store.Comment.Create(ctx, model.Comment{
		PostID:   parent.PostID,
		ParentID: &parent.ID,
		AuthorID: authorID,
		Text:     cleaned,
	})
	if err != nil {
		// the parent can vanish between the lookup and the insert
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrParentNotFound
		}
		s.logger.Sugar().Errorf("failed to create reply to comment(%s): %s", parentID.String(), err.Error())
		return nil, ErrInternal
	}

	s.incrPostComments(ctx, parent.PostID, 1)
	commentsCreated.WithLabelValues("reply").Inc()

	return tree.Format(created, author), nil
}

func (s *commentService) Vote(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	if commentID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrInvalidID
	}
	if !polarity.Valid() {
		return nil, ErrInvalidPolarity
	}

	counts, err := s.repo.Store.Comment.AddVoter(ctx, commentID, userID, polarity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		if errors.Is(err, store.ErrAlreadyVoted) {
			return nil, ErrAlreadyVoted
		}
		s.logger.Sugar().Errorf("failed to %s comment(%s): %s", string(polarity), commentID.String(), err.Error())
		return nil, ErrInternal
	}

	votesCast.WithLabelValues(string(polarity)).Inc()

	return counts, nil
}

func (s *commentService) Delete(ctx context.Context, commentID uuid.UUID, requesterID uuid.UUID) (int64, error) {
	if commentID == uuid.Nil || requesterID == uuid.Nil {
		return 0, ErrInvalidID
	}

	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return 0, err
	}

	if comment.AuthorID != requesterID {
		return 0, ErrForbidden
	}

	ids, err := s.collectSubtree(ctx, comment.ID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to collect replies of comment(%s): %s", commentID.String(), err.Error())
		return 0, ErrInternal
	}

	deleted, err := s.repo.Store.Comment.DeleteMany(ctx, ids)
	if err != nil {
		s.logger.Sugar().Errorf("failed to delete comment(%s) with %d replies: %s", commentID.String(), len(ids)-1, err.Error())
		return 0, ErrInternal
	}

	if deleted > 0 {
		s.incrPostComments(ctx, comment.PostID, -deleted)
	}
	commentsDeleted.Add(float64(deleted))

	return deleted, nil
}

// collectSubtree returns id followed by every descendant id, depth-first.
func (s *commentService) collectSubtree(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{id}

	replies, err := s.repo.Store.Comment.FindReplies(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, reply := range replies {
		descendants, err := s.collectSubtree(ctx, reply.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, descendants...)
	}

	return ids, nil
}

func (s *commentService) Recent(ctx context.Context, userID uuid.UUID) ([]*tree.RecentNode, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidID
	}

	comments, err := s.repo.Store.Comment.FindAuthorComments(ctx, userID, store.RECENT_COMMENTS_LIMIT)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find recent comments of user(%s): %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	result := make([]*tree.RecentNode, 0, len(comments))
	if len(comments) == 0 {
		return result, nil
	}

	postIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		postIDs = append(postIDs, c.PostID)
	}
	posts, err := s.repo.Store.Post.FindByIDs(ctx, postIDs)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find posts of user(%s) recent comments: %s", userID.String(), err.Error())
		return nil, ErrInternal
	}

	author, err := s.userCache.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	for _, c := range comments {
		recent := &tree.RecentNode{Node: tree.Format(c, author)}
		if post, ok := posts[c.PostID]; ok {
			recent.PostTitle = post.Title
		}
		result = append(result, recent)
	}

	return result, nil
}

func (s *commentService) Recount(ctx context.Context, postID uuid.UUID) (int64, error) {
	if postID == uuid.Nil {
		return 0, ErrInvalidID
	}

	count, err := s.repo.Store.Comment.CountPostComments(ctx, postID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to count post(%s) comments: %s", postID.String(), err.Error())
		return 0, ErrInternal
	}

	if err := s.repo.Store.Post.SetComments(ctx, postID, count); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to set post(%s) comments count: %s", postID.String(), err.Error())
		return 0, ErrInternal
	}

	return count, nil
}

func (s *commentService) findComment(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	comment, err := s.repo.Store.Comment.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		s.logger.Sugar().Errorf("failed to find comment(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	return comment, nil
}

// incrPostComments moves the post counter. The comment write has already
// succeeded, so a failure here is logged and left to Recount.
func (s *commentService) incrPostComments(ctx context.Context, postID uuid.UUID, delta int64) {
	if err := s.repo.Store.Post.IncrComments(ctx, postID, delta); err != nil {
		s.logger.Sugar().Errorf("failed to change post(%s) comments count by %d: %s", postID.String(), delta, err.Error())
	}
}

func (s *commentService) notifyPostOwner(post *model.Post, comment *model.Comment) {
	if s.broker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), NOTIFICATION_TIMEOUT)
	defer cancel()

	msg := dto.MQCommentCreatedMsg{
		CommentID: comment.ID,
		PostID:    post.ID,
		UserID:    post.AuthorID,
		ActorID:   comment.AuthorID,
		Type:      "comment",
		Content:   comment.Text,
		CreatedAt: comment.CreatedAt,
	}
	if err := s.broker.PublishJSON(ctx, rabbitmq.COMMENT_CREATED_QUEUE, msg); err != nil {
		notificationsFailed.Inc()
		s.logger.Sugar().Errorf("failed to notify user(%s) about comment(%s): %s", post.AuthorID.String(), comment.ID.String(), err.Error())
	}
}
