package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/rabbitmq"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/repository/redisrepo"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type userCacheService struct {
	logger     *zap.Logger
	repo       *repository.Repository
	broker     Broker
	httpClient *http.Client
	apiURL     string
	ttl        time.Duration
}

func newUserCacheService(logger *zap.Logger, repo *repository.Repository, broker Broker, opts Options) UserCache {
	return &userCacheService{
		logger:     logger,
		repo:       repo,
		broker:     broker,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     opts.UserServiceURL,
		ttl:        opts.UserCacheTTL,
	}
}

func (s *userCacheService) CreateOrGet(ctx context.Context, id uuid.UUID, accessToken string) (*model.CachedUser, error) {
	cachedUser, err := s.FindByID(ctx, id)
	if err == nil {
		return cachedUser, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	fetchedUser, err := s.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if fetchedUser.ID != id {
		s.logger.Sugar().Errorf("user-service returned user(%s) for token of user(%s)", fetchedUser.ID.String(), id.String())
		return nil, ErrFailedToFetchUser
	}

	if err := s.repo.Store.UserCache.Create(ctx, *fetchedUser); err != nil {
		s.logger.Sugar().Errorf("failed to create cached user(%s): %s", fetchedUser.ID.String(), err.Error())
		return nil, ErrInternal
	}

	return fetchedUser, nil
}

func (s *userCacheService) fetchUser(ctx context.Context, accessToken string) (*model.CachedUser, error) {
	if s.apiURL == "" {
		return nil, ErrUserNotFound
	}

	endpoint := "/users/@me"
	url := s.apiURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create request to user-service: %s", err.Error())
		return nil, ErrInternal
	}

	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Sugar().Errorf("failed to send request to user-service: %s", err.Error())
		return nil, ErrInternal
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Sugar().Errorf("failed to read response body from user-service: %s", err.Error())
		return nil, ErrInternal
	}

	if resp.StatusCode != http.StatusOK {
		var bodyJSON map[string]interface{}
		if err := json.Unmarshal(body, &bodyJSON); err != nil {
			s.logger.Sugar().Errorf("failed to decode error response from user-service: %s", err.Error())
		} else {
			s.logger.Sugar().Errorf("ERROR from user-service endpoint(%s), details: %v", endpoint, bodyJSON["details"])
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrUserNotFound
		}
		return nil, ErrFailedToFetchUser
	}

	var user model.CachedUser
	if err := json.Unmarshal(body, &user); err != nil {
		s.logger.Sugar().Errorf("failed to decode user response body from user-service: %s", err.Error())
		return nil, ErrInternal
	}

	return &user, nil
}

func (s *userCacheService) Create(ctx context.Context, cachedUser model.CachedUser) error {
	if err := s.repo.Store.UserCache.Create(ctx, cachedUser); err != nil {
		s.logger.Sugar().Errorf("failed to create cached user(%s): %s", cachedUser.ID.String(), err.Error())
		return ErrInternal
	}

	s.dropFromRedis(ctx, cachedUser.ID)

	return nil
}

func (s *userCacheService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if err := s.repo.Store.UserCache.Update(ctx, id, updates); err != nil {
		s.logger.Sugar().Errorf("failed to update cached user(%s): %s", id.String(), err.Error())
		if errors.Is(err, store.ErrFieldsNotAllowedToUpdate) {
			return err
		}
		return ErrInternal
	}

	s.dropFromRedis(ctx, id)

	return nil
}

func (s *userCacheService) dropFromRedis(ctx context.Context, id uuid.UUID) {
	if s.repo.Redis == nil {
		return
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.UserCacheKey(id.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete cached user(%s) from redis: %s", id.String(), err.Error())
	}
}

func (s *userCacheService) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	key := redisrepo.UserCacheKey(id.String())

	if s.repo.Redis != nil {
		cachedUser, err := redisrepo.Get[model.CachedUser](s.repo.Redis.Default, ctx, key)
		if err == nil && cachedUser != nil {
			return cachedUser, nil
		}
		if err != nil && err != redis.Nil {
			s.logger.Sugar().Errorf("failed to get cached user(%s) from redis: %s", id.String(), err.Error())
		}
	}

	user, err := s.repo.Store.UserCache.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		s.logger.Sugar().Errorf("failed to get cached user(%s) from store: %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	if s.repo.Redis != nil {
		if err := s.repo.Redis.Default.SetJSON(ctx, key, user, s.ttl); err != nil {
			s.logger.Sugar().Errorf("failed to set user(%s) in redis: %s", id.String(), err.Error())
		}
	}

	return user, nil
}

// FindMany resolves every distinct id. Unknown users are left out of the
// result so their comments render with empty display fields.
func (s *userCacheService) FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.CachedUser, error) {
	users := make(map[uuid.UUID]*model.CachedUser, len(ids))
	for _, id := range ids {
		if _, seen := users[id]; seen {
			continue
		}

		user, err := s.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				users[id] = nil
				continue
			}
			return nil, err
		}
		users[id] = user
	}

	return users, nil
}

func (s *userCacheService) consumeUserUpdates(ctx context.Context) {
	queue := rabbitmq.USER_INFO_UPDATED_QUEUE
	msgs, err := s.broker.Consume(queue)
	if err != nil {
		s.logger.Sugar().Fatalf("failed to start consume updates from queue(%s): %s", queue, err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				s.logger.Sugar().Warnf("queue(%s) delivery channel closed", queue)
				return
			}
			s.handleUserUpdate(ctx, queue, msg.Body, msg)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (s *userCacheService) handleUserUpdate(ctx context.Context, queue string, body []byte, msg acknowledger) {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		s.logger.Sugar().Errorf("failed to unmarshal json in queue(%s): %s", queue, err.Error())
		msg.Nack(false, false)
		return
	}

	userIDString, exists := data["user_id"].(string)
	if !exists {
		s.logger.Sugar().Errorf("'user_id' field is not provided")
		msg.Nack(false, false)
		return
	}
	userID, err := uuid.Parse(userIDString)
	if err != nil {
		s.logger.Sugar().Errorf("provided an invalid user_id")
		msg.Nack(false, false)
		return
	}

	delete(data, "user_id")

	if err := s.Update(ctx, userID, data); err != nil {
		// a malformed update never succeeds, so only store failures are retried
		msg.Nack(false, !errors.Is(err, store.ErrFieldsNotAllowedToUpdate))
		return
	}

	msg.Ack(false)
}
