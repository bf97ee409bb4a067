package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) moderatorMiddleware(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		c.Abort()
		return
	}

	role, _ := claims["role"].(string)
	role = strings.ToLower(role)
	if role != "mod" && role != "admin" {
		c.JSON(http.StatusForbidden, dto.NewBasicResponse(false, errNoAccess.Error()))
		c.Abort()
		return
	}

	c.Next()
}
