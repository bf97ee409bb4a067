package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/service"
	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const CACHED_USER_KEY = "cached-user"

type Options struct {
	AccessSecret string
	ClientOrigin string
	// RateLimitPerSecond caps mutating requests per client ip. Zero disables it.
	RateLimitPerSecond uint
	Metrics            bool
}

type Handler struct {
	services *service.Service
	logger   *zap.Logger
	opts     Options
}

func New(services *service.Service, logger *zap.Logger, opts Options) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		opts:     opts,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(h.loggerMiddleware, gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if h.opts.ClientOrigin != "" {
		corsConfig.AllowOrigins = []string{h.opts.ClientOrigin}
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	if h.opts.Metrics {
		p := ginprometheus.NewPrometheus("comment_service")
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			url := c.Request.URL.Path
			for _, p := range c.Params {
				url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
			}
			return url
		}
		p.Use(r)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
	})

	limit := h.rateLimitMiddleware()

	v1 := r.Group("/api/v1")
	{
		comments := v1.Group("/comments")
		{
			comments.GET("/:postID", h.commentsGet)
			comments.GET("/recent/:userID", h.commentsRecent)

			comments.POST("", limit, h.authMiddleware, h.commentsCreate)
			comments.POST("/reply/:parentID", limit, h.authMiddleware, h.commentsReply)
			comments.POST("/:id/like", limit, h.authMiddleware, h.commentsLike)
			comments.POST("/:id/dislike", limit, h.authMiddleware, h.commentsDislike)
			comments.DELETE("/:id", limit, h.authMiddleware, h.commentsDelete)

			comments.POST("/recount/:postID", h.moderatorMiddleware, h.modRecountComments)
		}
	}

	return r
}

func (h *Handler) rateLimitMiddleware() gin.HandlerFunc {
	if h.opts.RateLimitPerSecond == 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: h.opts.RateLimitPerSecond,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.JSON(http.StatusTooManyRequests, dto.NewBasicResponse(false, "too many requests, try again in "+time.Until(info.ResetTime).Round(time.Second).String()))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func (h *Handler) getUserFromRequest(c *gin.Context) *model.CachedUser {
	userReq, _ := c.Get(CACHED_USER_KEY)

	user, ok := userReq.(model.CachedUser)
	if !ok {
		return nil
	}

	return &user
}
