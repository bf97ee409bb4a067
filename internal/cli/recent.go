package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent <userID>",
		Short: "Show the latest comments of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}

			nodes, err := newAPIClient().RecentComments(commandContext(cmd), userID)
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), nodes)
			}
			printRecent(cmd.OutOrStdout(), nodes)
			return nil
		},
	}
}

func newRecountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recount <postID>",
		Short: "Recompute a post's comment counter (moderators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post", args[0])
			if err != nil {
				return err
			}

			count, err := newAPIClient().Recount(commandContext(cmd), postID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Post %s has %d comments\n", postID, count)
			return nil
		},
	}
}
