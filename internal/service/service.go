package service

import (
	"context"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Broker is the message bus the service publishes notifications to and
// consumes user updates from. *rabbitmq.MQConn satisfies it.
type Broker interface {
	PublishJSON(ctx context.Context, queue string, v interface{}) error
	Consume(queue string) (<-chan amqp.Delivery, error)
}

type Options struct {
	// UserServiceURL is the base url of the user-service api.
	UserServiceURL string
	UserCacheTTL   time.Duration
}

type Comment interface {
	List(ctx context.Context, postID uuid.UUID, newestFirst bool) ([]*tree.Node, error)
	Create(ctx context.Context, postID uuid.UUID, authorID uuid.UUID, text string) (*tree.Node, error)
	Reply(ctx context.Context, parentID uuid.UUID, authorID uuid.UUID, text string) (*tree.Node, error)
	Vote(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error)
	Delete(ctx context.Context, commentID uuid.UUID, requesterID uuid.UUID) (int64, error)
	Recent(ctx context.Context, userID uuid.UUID) ([]*tree.RecentNode, error)
	Recount(ctx context.Context, postID uuid.UUID) (int64, error)
}

type UserCache interface {
	CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error)
	Create(ctx context.Context, user model.CachedUser) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error)
	FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CachedUser, error)
	consumeUserUpdates(ctx context.Context)
}

type Service struct {
	Comment
	UserCache
	logger *zap.Logger
	broker Broker
}

// New wires the services. broker may be nil, in which case notifications
// are skipped and no queue is consumed.
func New(logger *zap.Logger, repo *repository.Repository, broker Broker, opts Options) *Service {
	if opts.UserCacheTTL <= 0 {
		opts.UserCacheTTL = time.Hour
	}

	userCache := newUserCacheService(logger, repo, broker, opts)

	return &Service{
		Comment:   newCommentService(logger, repo, userCache, broker),
		UserCache: userCache,
		logger:    logger,
		broker:    broker,
	}
}

func (s *Service) StartConsumeAll(ctx context.Context) {
	if s.broker == nil {
		s.logger.Info("no message broker configured, skipping consumers")
		return
	}

	go s.UserCache.consumeUserUpdates(ctx)
}
