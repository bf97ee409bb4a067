package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized = errors.New("user is not authorized")
	errNoAccess      = errors.New("no access")
	errInvalidPostID = errors.New("invalid post ID")
	errInvalidUserID = errors.New("invalid user ID")
	errInvalidID     = errors.New("invalid ID")
	errInvalidSort   = errors.New("sort must be newest or oldest")
	errUserMismatch  = errors.New("userId does not match the authorized user")
)

// errorResponse writes a service error with the status of its kind.
// Anything unclassified is reported as an internal error.
func errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.Kind(err) {
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindConflict:
		status = http.StatusConflict
	}

	details := err.Error()
	if status == http.StatusInternalServerError {
		details = service.ErrInternal.Error()
	}

	c.JSON(status, dto.NewBasicResponse(false, details))
}
