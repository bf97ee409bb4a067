package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/comment-service/internal/config"
	"github.com/BloggingApp/comment-service/internal/handler"
	"github.com/BloggingApp/comment-service/internal/rabbitmq"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/repository/memory"
	"github.com/BloggingApp/comment-service/internal/repository/mongodb"
	"github.com/BloggingApp/comment-service/internal/repository/postgres"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/BloggingApp/comment-service/internal/server"
	"github.com/BloggingApp/comment-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envErr := loadEnv()
	configErr := initConfig()

	logger := newLogger()
	defer logger.Sync()

	if envErr != nil {
		logger.Sugar().Warnf("failed to load environment variables: %s", envErr.Error())
	}
	if configErr != nil {
		logger.Sugar().Warnf("failed to initialize yaml config, using defaults: %s", configErr.Error())
	}

	s, closeStore := openStore(ctx, logger)
	defer closeStore()

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: addr,
		})
		pong, err := rdb.Ping(ctx).Result()
		if err != nil {
			logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
		}
		logger.Sugar().Infof("Successfully connected to Redis: %s", pong)
		defer rdb.Close()
	} else {
		logger.Info("REDIS_ADDR is not set, user cache is served from the store only")
	}

	var broker service.Broker
	if viper.GetBool("rabbitmq.enabled") {
		mq, err := rabbitmq.New(os.Getenv("RABBITMQ_CONN_STRING"))
		if err != nil {
			logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
		}
		logger.Info("Successfully connected to RabbitMQ")
		defer mq.Close()
		broker = mq
	}

	repos := repository.New(s, rdb)
	services := service.New(logger, repos, broker, service.Options{
		UserServiceURL: viper.GetString("user-service.api"),
		UserCacheTTL:   viper.GetDuration("cache.user-ttl"),
	})
	handlers := handler.New(services, logger, handler.Options{
		AccessSecret:       os.Getenv("ACCESS_SECRET"),
		ClientOrigin:       viper.GetString("client.origin"),
		RateLimitPerSecond: viper.GetUint("ratelimit.per-second"),
		Metrics:            viper.GetBool("metrics.enabled"),
	})

	srv := server.New()
	serverConfig := config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 10,
	}
	go func() {
		if err := srv.Run(serverConfig); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	services.StartConsumeAll(ctx)

	logger.Sugar().Infof("Server started on port %s", serverConfig.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func newLogger() *zap.Logger {
	if viper.GetString("app.env") == "dev" {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	gin.SetMode(gin.ReleaseMode)
	logger, _ := zap.NewProduction()
	return logger
}

// openStore connects the configured storage driver and returns a func
// that releases it.
func openStore(ctx context.Context, logger *zap.Logger) (*store.Store, func()) {
	switch driver := viper.GetString("storage.driver"); driver {
	case "mongodb":
		mongoConfig := config.MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Username: os.Getenv("MONGO_USERNAME"),
			Password: os.Getenv("MONGO_PASSWORD"),
			Database: os.Getenv("MONGO_DATABASE"),
		}
		client, err := mongodb.Connect(ctx, mongoConfig)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to mongodb: %s", err.Error())
		}
		db := client.Database(mongoConfig.Database)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			logger.Sugar().Panicf("failed to create mongodb indexes: %s", err.Error())
		}
		logger.Info("Successfully connected to MongoDB")

		return mongodb.New(db), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Sugar().Errorf("failed to disconnect from mongodb: %s", err.Error())
			}
		}
	case "postgres":
		dbConfig := config.DBConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			DBName:   os.Getenv("POSTGRES_DATABASE"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		}
		db, err := postgres.DB(ctx, dbConfig)
		if err != nil {
			logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
		}
		if err := db.Ping(ctx); err != nil {
			logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Sugar().Panicf("failed to migrate postgres: %s", err.Error())
		}
		logger.Info("Successfully connected to PostgreSQL")

		return postgres.New(db), db.Close
	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		if viper.GetString("app.env") != "dev" {
			return memory.New(), func() {}
		}

		postID, err := uuid.Parse(viper.GetString("storage.memory.demo-post"))
		if err != nil {
			logger.Sugar().Panicf("invalid storage.memory.demo-post: %s", err.Error())
		}
		authorID, err := uuid.Parse(viper.GetString("storage.memory.demo-author"))
		if err != nil {
			logger.Sugar().Panicf("invalid storage.memory.demo-author: %s", err.Error())
		}
		logger.Sugar().Infof("seeded demo post %s owned by %s", postID, authorID)

		return memory.NewDemo(postID, authorID), func() {}
	default:
		logger.Sugar().Panicf("unknown storage driver %q", driver)
		return nil, nil
	}
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("storage.driver", "mongodb")
	viper.SetDefault("storage.memory.demo-post", "00000000-0000-4000-8000-000000000001")
	viper.SetDefault("storage.memory.demo-author", "00000000-0000-4000-8000-000000000002")
	viper.SetDefault("cache.user-ttl", time.Hour)
	viper.SetDefault("metrics.enabled", true)
	return viper.ReadInConfig()
}
