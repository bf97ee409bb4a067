package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/BloggingApp/comment-service/internal/commentctx"
	"github.com/BloggingApp/comment-service/internal/handler"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository"
	"github.com/BloggingApp/comment-service/internal/repository/memory"
	"github.com/BloggingApp/comment-service/internal/service"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/BloggingApp/comment-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

type cliEnv struct {
	url   string
	token string
	post  model.Post
	user  model.CachedUser
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	gin.SetMode(gin.TestMode)

	const secret = "cli-secret"
	s := memory.New()
	services := service.New(zap.NewNop(), repository.New(s, nil), nil, service.Options{})
	srv := httptest.NewServer(handler.New(services, zap.NewNop(), handler.Options{AccessSecret: secret}).InitRoutes())
	t.Cleanup(srv.Close)

	env := &cliEnv{url: srv.URL, user: model.CachedUser{ID: uuid.New(), Username: "cli-user"}}
	env.post = model.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "CLI"}
	memory.SeedPost(s, env.post)
	require.NoError(t, services.UserCache.Create(context.Background(), env.user))

	token, err := utils.NewAccessToken(env.user.ID, "", []byte(secret))
	require.NoError(t, err)
	env.token = token

	return env
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	assert.NoError(t, err)
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	assert.NotNil(t, root.PersistentFlags().Lookup("server"))
	assert.NotNil(t, root.PersistentFlags().Lookup("token"))
}

func TestInvalidIDs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("list", "nope")
	assert.EqualError(t, err, "invalid post ID: nope")

	_, err = executeCommand("like", uuid.NewString(), "nope")
	assert.EqualError(t, err, "invalid comment ID: nope")
}

func TestCommentListDeleteFlow(t *testing.T) {
	env := newCLIEnv(t)
	postID := env.post.ID.String()

	out, err := executeCommand("list", postID, "--server", env.url)
	require.NoError(t, err)
	assert.Contains(t, out, "0 comments")

	_, err = executeCommand("comment", postID, "hello", "--server", env.url)
	assert.ErrorIs(t, err, commentctx.ErrLoginRequired)

	out, err = executeCommand("comment", postID, "hello", "from", "cli", "--server", env.url, "--token", env.token, "--format", "json")
	require.NoError(t, err)
	var created tree.Node
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "hello from cli", created.Text)

	out, err = executeCommand("reply", postID, created.ID.String(), "a reply", "--server", env.url, "--token", env.token)
	require.NoError(t, err)
	assert.Contains(t, out, "2 comments")

	out, err = executeCommand("like", postID, created.ID.String(), "--server", env.url, "--token", env.token)
	require.NoError(t, err)
	assert.Contains(t, out, "1 likes, 0 dislikes")

	_, err = executeCommand("dislike", postID, created.ID.String(), "--server", env.url, "--token", env.token)
	assert.EqualError(t, err, service.ErrAlreadyVoted.Error())

	out, err = executeCommand("list", postID, "--server", env.url)
	require.NoError(t, err)
	assert.Contains(t, out, "2 comments")
	assert.Contains(t, out, "cli-user")

	out, err = executeCommand("delete", postID, created.ID.String(), "--server", env.url, "--token", env.token)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 comments, 0 left")

	out, err = executeCommand("recent", env.user.ID.String(), "--server", env.url, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}
