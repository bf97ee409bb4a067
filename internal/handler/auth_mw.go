package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/service"
	"github.com/BloggingApp/comment-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func (h *Handler) authMiddleware(c *gin.Context) {
	if _, ok := h.authenticate(c); !ok {
		c.Abort()
		return
	}

	c.Next()
}

// authenticate validates the bearer token, loads the cached user into the
// context and returns the token claims. It writes the error response
// itself when ok is false.
func (h *Handler) authenticate(c *gin.Context) (claims jwt.MapClaims, ok bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return nil, false
	}

	accessToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return nil, false
	}

	claims, err := utils.DecodeJWT(accessToken, []byte(h.opts.AccessSecret))
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return nil, false
	}

	userID, err := utils.UserIDFromClaims(claims)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return nil, false
	}

	user, err := h.services.UserCache.CreateOrGet(c.Request.Context(), userID, accessToken)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrFailedToFetchUser) {
			c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
			return nil, false
		}
		errorResponse(c, err)
		return nil, false
	}

	c.Set(CACHED_USER_KEY, *user)

	return claims, true
}
