// Package commentctx holds the client-side state of one open post's
// comment section: the tree, its derived count and the paging and sort
// settings. Mutations are applied locally only after the server confirms
// them.
package commentctx

import (
	"context"
	"errors"
	"sync"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/sanitize"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const PAGE_SIZE = 5

var (
	ErrLoginRequired = errors.New("you need to be logged in to do that")
	ErrEmptyComment  = errors.New("comment cannot be empty")
)

// API is the subset of the comment-service client a Session needs.
// *client.Client satisfies it.
type API interface {
	ListComments(ctx context.Context, postID uuid.UUID, newestFirst bool) ([]*tree.Node, error)
	CreateComment(ctx context.Context, postID uuid.UUID, text string) (*tree.Node, error)
	Reply(ctx context.Context, parentID uuid.UUID, text string) (*tree.Node, error)
	Vote(ctx context.Context, commentID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) (int64, error)
}

// Reporter surfaces user-visible failures, e.g. as a dismissible toast.
type Reporter interface {
	Report(err error)
}

type ReporterFunc func(err error)

func (f ReporterFunc) Report(err error) {
	f(err)
}

type Session struct {
	api      API
	logger   *zap.Logger
	reporter Reporter
	postID   uuid.UUID
	userID   uuid.UUID

	mu              sync.Mutex
	tree            []*tree.Node
	isLoading       bool
	visibleCount    int
	sortNewestFirst bool
	// fetchGen identifies the latest dispatched refetch; mutationGen
	// counts confirmed local mutations. A response is dropped when a newer
	// refetch was dispatched and fetched again when mutationGen moved.
	fetchGen    uint64
	mutationGen uint64
}

// New creates the session of one post. userID is uuid.Nil for anonymous
// readers, who can only read. logger and reporter may be nil.
func New(api API, postID uuid.UUID, userID uuid.UUID, logger *zap.Logger, reporter Reporter) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = ReporterFunc(func(error) {})
	}

	return &Session{
		api:             api,
		logger:          logger,
		reporter:        reporter,
		postID:          postID,
		userID:          userID,
		tree:            []*tree.Node{},
		visibleCount:    PAGE_SIZE,
		sortNewestFirst: true,
	}
}

func (s *Session) PostID() uuid.UUID {
	return s.postID
}

// Refetch reloads the tree in the current sort order. A failed fetch is
// logged and leaves the tree untouched. A response that raced a confirmed
// local mutation is fetched again, so the tree always ends on a snapshot
// taken after the last mutation.
func (s *Session) Refetch(ctx context.Context) error {
	for {
		s.mu.Lock()
		s.fetchGen++
		fetchGen := s.fetchGen
		mutationGen := s.mutationGen
		newestFirst := s.sortNewestFirst
		s.isLoading = true
		s.mu.Unlock()

		nodes, err := s.api.ListComments(ctx, s.postID, newestFirst)

		s.mu.Lock()
		if fetchGen != s.fetchGen {
			// a newer refetch owns the loading flag and the result
			s.mu.Unlock()
			return nil
		}

		if err != nil {
			s.isLoading = false
			s.mu.Unlock()
			s.logger.Error("failed to fetch comments", zap.String("postId", s.postID.String()), zap.Error(err))
			return err
		}

		if mutationGen != s.mutationGen || newestFirst != s.sortNewestFirst {
			s.mu.Unlock()
			s.logger.Debug("refetching comments after a local change", zap.String("postId", s.postID.String()))
			if err := ctx.Err(); err != nil {
				s.mu.Lock()
				if fetchGen == s.fetchGen {
					s.isLoading = false
				}
				s.mu.Unlock()
				return err
			}
			continue
		}

		if nodes == nil {
			nodes = []*tree.Node{}
		}
		s.tree = nodes
		s.isLoading = false
		s.mu.Unlock()

		return nil
	}
}

// SetSortNewestFirst switches the top-level order and reloads.
func (s *Session) SetSortNewestFirst(ctx context.Context, newestFirst bool) error {
	s.mu.Lock()
	if s.sortNewestFirst == newestFirst {
		s.mu.Unlock()
		return nil
	}
	s.sortNewestFirst = newestFirst
	s.visibleCount = PAGE_SIZE
	s.mu.Unlock()

	return s.Refetch(ctx)
}

func (s *Session) SortNewestFirst() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortNewestFirst
}

func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isLoading
}

// TotalCount is the number of comments in the tree, replies included.
func (s *Session) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return tree.Count(s.tree)
}

// Tree returns a copy of every top-level comment with its replies.
func (s *Session) Tree() []*tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneNodes(s.tree)
}

// Visible returns a copy of the top-level comments revealed so far.
func (s *Session) Visible() []*tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.visibleCount
	if n > len(s.tree) {
		n = len(s.tree)
	}
	return cloneNodes(s.tree[:n])
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.visibleCount < len(s.tree)
}

// LoadMore reveals the next page of top-level comments.
func (s *Session) LoadMore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visibleCount += PAGE_SIZE
}

func (s *Session) SubmitTopLevel(ctx context.Context, text string) bool {
	if !s.canSubmit(text) {
		return false
	}

	node, err := s.api.CreateComment(ctx, s.postID, text)
	if err != nil {
		s.reporter.Report(err)
		return false
	}
	normalize(node)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sortNewestFirst {
		s.tree = append([]*tree.Node{node}, s.tree...)
	} else {
		s.tree = append(s.tree, node)
	}
	s.mutationGen++

	return true
}

func (s *Session) SubmitReply(ctx context.Context, parentID uuid.UUID, text string) bool {
	if !s.canSubmit(text) {
		return false
	}

	node, err := s.api.Reply(ctx, parentID, text)
	if err != nil {
		s.reporter.Report(err)
		return false
	}
	normalize(node)

	s.mu.Lock()
	defer s.mu.Unlock()

	if parent := tree.Find(s.tree, parentID); parent != nil {
		parent.Replies = append(parent.Replies, node)
	}
	s.mutationGen++

	return true
}

func (s *Session) Vote(ctx context.Context, commentID uuid.UUID, polarity model.Polarity) bool {
	if s.userID == uuid.Nil {
		s.reporter.Report(ErrLoginRequired)
		return false
	}

	counts, err := s.api.Vote(ctx, commentID, polarity)
	if err != nil {
		s.reporter.Report(err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if node := tree.Find(s.tree, commentID); node != nil {
		node.Likes = counts.Likes
		node.Dislikes = counts.Dislikes
	}
	s.mutationGen++

	return true
}

func (s *Session) Remove(ctx context.Context, commentID uuid.UUID) bool {
	if s.userID == uuid.Nil {
		s.reporter.Report(ErrLoginRequired)
		return false
	}

	if _, err := s.api.DeleteComment(ctx, commentID); err != nil {
		s.reporter.Report(err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree, _ = tree.Remove(s.tree, commentID)
	s.mutationGen++

	return true
}

func (s *Session) canSubmit(text string) bool {
	if s.userID == uuid.Nil {
		s.reporter.Report(ErrLoginRequired)
		return false
	}
	if sanitize.IsBlank(text) {
		s.reporter.Report(ErrEmptyComment)
		return false
	}
	return true
}

func normalize(node *tree.Node) {
	if node.Replies == nil {
		node.Replies = []*tree.Node{}
	}
}

func cloneNodes(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		c := *n
		c.Replies = cloneNodes(n.Replies)
		out = append(out, &c)
	}
	return out
}
