package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		oldest bool
		pages  int
	)

	cmd := &cobra.Command{
		Use:   "list <postID>",
		Short: "Show the comment tree of a post",
		Long:  "Show the comments of a post with their replies, newest first unless --oldest is set. Top-level comments are paged five at a time.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}

			session, _ := newSession(postID)
			ctx := commandContext(cmd)
			if oldest {
				if err := session.SetSortNewestFirst(ctx, false); err != nil {
					return err
				}
			} else if err := session.Refetch(ctx); err != nil {
				return err
			}

			for i := 1; i < pages; i++ {
				session.LoadMore()
			}

			visible := session.Visible()
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), visible)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d comments on post %s\n\n", session.TotalCount(), postID)
			printTree(out, visible, 0)
			if session.HasMore() {
				fmt.Fprintf(out, "\n(more comments, use --pages %d)\n", pages+1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oldest, "oldest", false, "show oldest comments first")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages of top-level comments to show")

	return cmd
}
