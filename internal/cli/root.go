// Package cli defines the cobra command tree for commentctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BloggingApp/comment-service/internal/client"
	"github.com/BloggingApp/comment-service/internal/commentctx"
	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	flagFormat string
	flagServer string
	flagToken  string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "commentctl",
		Short:         "Read and write BloggingApp post comments",
		Long:          "A command line client for the comment-service: list comment trees, comment, reply, vote and delete.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "comment-service url (default: http://localhost:8080)")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "access token used for write commands")

	root.AddCommand(
		newListCmd(),
		newCommentCmd(),
		newReplyCmd(),
		newVoteCmd(model.PolarityLike),
		newVoteCmd(model.PolarityDislike),
		newDeleteCmd(),
		newRecentCmd(),
		newRecountCmd(),
	)

	return root
}

// initConfig reads ~/.config/commentctl/config.yaml when present and
// lets COMMENTCTL_* environment variables override it.
func initConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "commentctl"))
	}
	viper.SetEnvPrefix("commentctl")
	viper.AutomaticEnv()
	viper.SetDefault("server_url", "http://localhost:8080")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	return nil
}

func serverURL() string {
	if flagServer != "" {
		return flagServer
	}
	return viper.GetString("server_url")
}

func accessToken() string {
	if flagToken != "" {
		return flagToken
	}
	return viper.GetString("token")
}

// newAPIClient creates an HTTP client for the comment-service API.
func newAPIClient() *client.Client {
	return client.New(serverURL(), accessToken())
}

// errReporter keeps the last error a session reported.
type errReporter struct {
	err error
}

func (r *errReporter) Report(err error) {
	r.err = err
}

// newSession opens a session on postID for the token's user. Without a
// token the session is read-only.
func newSession(postID uuid.UUID) (*commentctx.Session, *errReporter) {
	userID := uuid.Nil
	if token := accessToken(); token != "" {
		if id, err := utils.UnverifiedUserID(token); err == nil {
			userID = id
		}
	}

	reporter := &errReporter{}
	logger := zap.NewNop()
	if os.Getenv("COMMENTCTL_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}

	return commentctx.New(newAPIClient(), postID, userID, logger, reporter), reporter
}

func sessionError(r *errReporter) error {
	if r.err != nil {
		return r.err
	}
	return errors.New("request failed")
}

func parseID(kind, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %s", kind, value)
	}
	return id, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
