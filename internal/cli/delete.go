package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <postID> <commentID>",
		Short: "Delete a comment and all of its replies",
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
			before := session.TotalCount()
			if !session.Remove(ctx, commentID) {
				return sessionError(reporter)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d comments, %d left\n", before-session.TotalCount(), session.TotalCount())
			return nil
		},
	}
}
