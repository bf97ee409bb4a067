package cli

import (
	"fmt"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/spf13/cobra"
)

func newVoteCmd(polarity model.Polarity) *cobra.Command {
	return &cobra.Command{
		Use:   string(polarity) + " <postID> <commentID>",
		Short: fmt.Sprintf("%s a comment", polarity),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID("comment", args[1])
			if err != nil {
				return err
			}

			session, reporter := newSession(postID)
			ctx := commandContext(cmd)
			if err := session.Refetch(ctx); err != nil {
				return err
			}
			if !session.Vote(ctx, commentID, polarity) {
				return sessionError(reporter)
			}

			voted := tree.Find(session.Tree(), commentID)
			if voted == nil {
				return nil
			}
			counts := model.VoteCounts{Likes: voted.Likes, Dislikes: voted.Dislikes}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment %s: %d likes, %d dislikes\n", commentID, counts.Likes, counts.Dislikes)
			return nil
		},
	}
}
