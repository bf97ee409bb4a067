package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `comment <postID> "text"`,
		Short: "Add a comment to a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}

			session, reporter := newSession(postID)
			if !session.SubmitTopLevel(commandContext(cmd), strings.Join(args[1:], " ")) {
				return sessionError(reporter)
			}

			created := session.Tree()[0]
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment %s added\n", created.ID)
			return nil
		},
	}
}

func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `reply <postID> <parentID> "text"`,
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}
			parentID, err := parseID("comment", args[1])
			if err != nil {
				return err
			}

			session, reporter := newSession(postID)
			ctx := commandContext(cmd)
			if err := session.Refetch(ctx); err != nil {
				return err
			}
			if !session.SubmitReply(ctx, parentID, strings.Join(args[2:], " ")) {
				return sessionError(reporter)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), session.Tree())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reply added, post now has %d comments\n", session.TotalCount())
			return nil
		},
	}
}
