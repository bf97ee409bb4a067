package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BloggingApp/comment-service/internal/tree"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTree writes nodes and their replies, indenting each level.
func printTree(w io.Writer, nodes []*tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		author := n.Username
		if author == "" {
			author = n.AuthorID
		}
		fmt.Fprintf(w, "%s%s  %s  [+%d/-%d]  %s\n", indent, n.ID, author, n.Likes, n.Dislikes, n.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "%s  %s\n", indent, n.Text)
		printTree(w, n.Replies, depth+1)
	}
}

func printRecent(w io.Writer, nodes []*tree.RecentNode) {
	for _, n := range nodes {
		title := n.PostTitle
		if title == "" {
			title = n.PostID.String()
		}
		fmt.Fprintf(w, "%s  on %q  %s\n", n.ID, title, n.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  %s\n", n.Text)
	}
}
