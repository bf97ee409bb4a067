// Package tree turns stored comment records into the nested,
// author-populated shape served to clients.
package tree

import (
	"sort"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/google/uuid"
)

type Node struct {
	ID         uuid.UUID  `json:"id"`
	PostID     uuid.UUID  `json:"postId"`
	ParentID   *uuid.UUID `json:"parentId"`
	AuthorID   string     `json:"authorId"`
	Username   string     `json:"username"`
	ProfilePic string     `json:"profilePic"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"createdAt"`
	Likes      int64      `json:"likes"`
	Dislikes   int64      `json:"dislikes"`
	Replies    []*Node    `json:"replies"`
}

type RecentNode struct {
	*Node
	PostTitle string `json:"postTitle"`
}

// Format converts a single record. A nil comment yields nil; a nil
// author leaves the display fields empty.
func Format(c *model.Comment, author *model.CachedUser) *Node {
	if c == nil {
		return nil
	}

	node := &Node{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Likes:     c.Likes,
		Dislikes:  c.Dislikes,
		Replies:   []*Node{},
	}
	if c.ParentID != nil {
		parentID := *c.ParentID
		node.ParentID = &parentID
	}
	if author != nil {
		node.Username = author.Username
		node.ProfilePic = author.ProfilePic
	}

	return node
}

// Build resolves a flat set of comments into top-level nodes with their
// replies nested inline. Top-level nodes are ordered by creation time,
// newest first when newestFirst is set; replies always keep creation
// order. Comments whose parent is not in the set are dropped.
func Build(comments []*model.Comment, authors map[uuid.UUID]*model.CachedUser, newestFirst bool) []*Node {
	ordered := make([]*model.Comment, 0, len(comments))
	for _, c := range comments {
		if c != nil {
			ordered = append(ordered, c)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	nodes := make(map[uuid.UUID]*Node, len(ordered))
	for _, c := range ordered {
		nodes[c.ID] = Format(c, authors[c.AuthorID])
	}

	roots := make([]*Node, 0)
	for _, c := range ordered {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	if newestFirst {
		for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
			roots[i], roots[j] = roots[j], roots[i]
		}
	}

	return roots
}

// Count returns the number of nodes reachable from nodes.
func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		if n == nil {
			continue
		}
		total += 1 + Count(n.Replies)
	}
	return total
}

// Find returns the node with the given id, searching depth-first.
func Find(nodes []*Node, id uuid.UUID) *Node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return n
		}
		if found := Find(n.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// Remove returns nodes without the node with the given id (and thereby
// its whole subtree), wherever it sits. removed is false when no node
// matched.
func Remove(nodes []*Node, id uuid.UUID) (out []*Node, removed bool) {
	out = make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			removed = true
			continue
		}
		if !removed {
			var childRemoved bool
			n.Replies, childRemoved = Remove(n.Replies, id)
			removed = removed || childRemoved
		}
		out = append(out, n)
	}
	return out, removed
}
