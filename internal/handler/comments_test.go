package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BloggingApp/comment-service/internal/dto"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/repository/memory"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/BloggingApp/comment-service/internal/service"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/BloggingApp/comment-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	post   model.Post
	alice  model.CachedUser
	bob    model.CachedUser
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memory.New()
	services := service.New(zap.NewNop(), repository.New(s, nil), nil, service.Options{})

	env := &testEnv{
		store: s,
		alice: model.CachedUser{ID: uuid.New(), Username: "alice"},
		bob:   model.CachedUser{ID: uuid.New(), Username: "bob"},
	}
	env.post = model.Post{ID: uuid.New(), AuthorID: env.alice.ID, Title: "Hello"}
	memory.SeedPost(s, env.post)
	require.NoError(t, services.UserCache.Create(context.Background(), env.alice))
	require.NoError(t, services.UserCache.Create(context.Background(), env.bob))

	opts.AccessSecret = testSecret
	env.router = New(services, zap.NewNop(), opts).InitRoutes()

	return env
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()

	tok, err := utils.NewAccessToken(userID, role, []byte(testSecret))
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (env *testEnv) create(t *testing.T, user model.CachedUser, text string) tree.Node {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/v1/comments", token(t, user.ID, ""), gin.H{
		"postId": env.post.ID,
		"text":   text,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[tree.Node](t, w)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommentsGet(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.do(t, http.MethodGet, "/api/v1/comments/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/comments/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/comments/"+env.post.ID.String()+"?sort=random", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	first := env.create(t, env.bob, "first")
	second := env.create(t, env.alice, "second")

	w = env.do(t, http.MethodGet, "/api/v1/comments/"+env.post.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	nodes := decode[[]tree.Node](t, w)
	require.Len(t, nodes, 2)
	assert.Equal(t, second.ID, nodes[0].ID)

	w = env.do(t, http.MethodGet, "/api/v1/comments/"+env.post.ID.String()+"?sort=oldest", "", nil)
	nodes = decode[[]tree.Node](t, w)
	require.Len(t, nodes, 2)
	assert.Equal(t, first.ID, nodes[0].ID)
	assert.Equal(t, "bob", nodes[0].Username)
}

func TestCommentsCreate(t *testing.T) {
	env := newTestEnv(t, Options{})
	path := "/api/v1/comments"

	w := env.do(t, http.MethodPost, path, "", gin.H{"postId": env.post.ID, "text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, path, "forged", gin.H{"postId": env.post.ID, "text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bobToken := token(t, env.bob.ID, "")

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"postId": env.post.ID, "text": "<b></b>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"postId": "nope", "text": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"postId": uuid.New(), "text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"postId": env.post.ID, "userId": env.alice.ID, "text": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, bobToken, gin.H{"postId": env.post.ID, "userId": env.bob.ID, "text": "hi"})
	require.Equal(t, http.StatusCreated, w.Code)
	node := decode[tree.Node](t, w)
	assert.Equal(t, env.bob.ID.String(), node.AuthorID)
	assert.Equal(t, "hi", node.Text)

	post, err := env.store.Post.FindByID(context.Background(), env.post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Comments)
}

func TestCommentsCreateUnknownUser(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.do(t, http.MethodPost, "/api/v1/comments", token(t, uuid.New(), ""), gin.H{"postId": env.post.ID, "text": "hi"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentsReply(t *testing.T) {
	env := newTestEnv(t, Options{})
	parent := env.create(t, env.bob, "parent")
	aliceToken := token(t, env.alice.ID, "")

	w := env.do(t, http.MethodPost, "/api/v1/comments/reply/"+uuid.NewString(), aliceToken, gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/comments/reply/bad", aliceToken, gin.H{"text": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/comments/reply/"+parent.ID.String(), aliceToken, gin.H{"text": "reply"})
	require.Equal(t, http.StatusCreated, w.Code)
	reply := decode[tree.Node](t, w)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)

	w = env.do(t, http.MethodGet, "/api/v1/comments/"+env.post.ID.String(), "", nil)
	nodes := decode[[]tree.Node](t, w)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Replies, 1)
	assert.Equal(t, reply.ID, nodes[0].Replies[0].ID)
}

func TestCommentsVote(t *testing.T) {
	env := newTestEnv(t, Options{})
	node := env.create(t, env.bob, "vote")
	aliceToken := token(t, env.alice.ID, "")
	likePath := "/api/v1/comments/" + node.ID.String() + "/like"
	dislikePath := "/api/v1/comments/" + node.ID.String() + "/dislike"

	w := env.do(t, http.MethodPost, likePath, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.VoteCounts{Likes: 1}, decode[model.VoteCounts](t, w))

	w = env.do(t, http.MethodPost, likePath, aliceToken, gin.H{"userId": env.alice.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, dislikePath, aliceToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, dislikePath, token(t, env.bob.ID, ""), gin.H{"userId": env.bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.VoteCounts{Likes: 1, Dislikes: 1}, decode[model.VoteCounts](t, w))

	w = env.do(t, http.MethodPost, "/api/v1/comments/"+uuid.NewString()+"/like", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsDelete(t *testing.T) {
	env := newTestEnv(t, Options{})
	root := env.create(t, env.bob, "root")
	aliceToken := token(t, env.alice.ID, "")
	bobToken := token(t, env.bob.ID, "")

	w := env.do(t, http.MethodPost, "/api/v1/comments/reply/"+root.ID.String(), aliceToken, gin.H{"text": "reply"})
	require.Equal(t, http.StatusCreated, w.Code)

	path := "/api/v1/comments/" + root.ID.String()

	w = env.do(t, http.MethodDelete, path, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, path, bobToken, gin.H{"userId": env.bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.DeleteCommentResponse{DeletedCount: 2}, decode[dto.DeleteCommentResponse](t, w))

	w = env.do(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	post, err := env.store.Post.FindByID(context.Background(), env.post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.Comments)
}

func TestCommentsRecent(t *testing.T) {
	env := newTestEnv(t, Options{})
	node := env.create(t, env.bob, "recent")

	w := env.do(t, http.MethodGet, "/api/v1/comments/recent/"+env.bob.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recent []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, node.ID.String(), recent[0]["id"])
	assert.Equal(t, "Hello", recent[0]["postTitle"])

	w = env.do(t, http.MethodGet, "/api/v1/comments/recent/bad", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModRecount(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.create(t, env.bob, "one")
	require.NoError(t, env.store.Post.IncrComments(context.Background(), env.post.ID, 5))
	path := "/api/v1/comments/recount/" + env.post.ID.String()

	w := env.do(t, http.MethodPost, path, token(t, env.bob.ID, "user"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, token(t, env.alice.ID, "mod"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RecountResponse{Comments: 1}, decode[dto.RecountResponse](t, w))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerSecond: 1})
	node := env.create(t, env.bob, "limited")

	w := env.do(t, http.MethodPost, "/api/v1/comments/"+node.ID.String()+"/like", token(t, env.alice.ID, ""), nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
