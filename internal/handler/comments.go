package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON binds the body when one is sent.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// requester returns the authorized user's id, rejecting a body userId
// that names somebody else.
func (h *Handler) requester(c *gin.Context, bodyUserID uuid.UUID) (uuid.UUID, bool) {
	user := h.getUserFromRequest(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		return uuid.Nil, false
	}

	if bodyUserID != uuid.Nil && bodyUserID != user.ID {
		c.JSON(http.StatusForbidden, dto.NewBasicResponse(false, errUserMismatch.Error()))
		return uuid.Nil, false
	}

	return user.ID, true
}

func (h *Handler) commentsGet(c *gin.Context) {
	postID, ok := parseIDParam(c, "postID")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	newestFirst := true
	switch strings.ToLower(c.Query("sort")) {
	case "", "newest":
	case "oldest":
		newestFirst = false
	default:
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidSort.Error()))
		return
	}

	comments, err := h.services.Comment.List(c.Request.Context(), postID, newestFirst)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *Handler) commentsCreate(c *gin.Context) {
	var input dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	userID, ok := h.requester(c, input.UserID)
	if !ok {
		return
	}

	if input.PostID == uuid.Nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	createdComment, err := h.services.Comment.Create(c.Request.Context(), input.PostID, userID, input.Text)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, createdComment)
}

func (h *Handler) commentsReply(c *gin.Context) {
	parentID, ok := parseIDParam(c, "parentID")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	var input dto.ReplyCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	userID, ok := h.requester(c, input.UserID)
	if !ok {
		return
	}

	reply, err := h.services.Comment.Reply(c.Request.Context(), parentID, userID, input.Text)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, reply)
}

func (h *Handler) commentsLike(c *gin.Context) {
	h.commentsVote(c, model.PolarityLike)
}

func (h *Handler) commentsDislike(c *gin.Context) {
	h.commentsVote(c, model.PolarityDislike)
}

func (h *Handler) commentsVote(c *gin.Context, polarity model.Polarity) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	var input dto.UserRequest
	if err := bindOptionalJSON(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	userID, ok := h.requester(c, input.UserID)
	if !ok {
		return
	}

	counts, err := h.services.Comment.Vote(c.Request.Context(), commentID, userID, polarity)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

func (h *Handler) commentsDelete(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidID.Error()))
		return
	}

	var input dto.UserRequest
	if err := bindOptionalJSON(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	userID, ok := h.requester(c, input.UserID)
	if !ok {
		return
	}

	deleted, err := h.services.Comment.Delete(c.Request.Context(), commentID, userID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteCommentResponse{DeletedCount: deleted})
}

func (h *Handler) commentsRecent(c *gin.Context) {
	userID, ok := parseIDParam(c, "userID")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return
	}

	comments, err := h.services.Comment.Recent(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *Handler) modRecountComments(c *gin.Context) {
	postID, ok := parseIDParam(c, "postID")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return
	}

	count, err := h.services.Comment.Recount(c.Request.Context(), postID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RecountResponse{Comments: count})
}
