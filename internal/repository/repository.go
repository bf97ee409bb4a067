package repository

import (
	"github.com/BloggingApp/comment-service/internal/repository/redisrepo"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/redis/go-redis/v9"
)

type Repository struct {
	Store *store.Store
	// Redis is nil when no cache is configured.
	Redis *redisrepo.RedisRepository
}

func New(s *store.Store, rdb *redis.Client) *Repository {
	repo := &Repository{
		Store: s,
	}
	if rdb != nil {
		repo.Redis = redisrepo.New(rdb)
	}

	return repo
}
