package commentctx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/tree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listCall struct {
	newestFirst bool
	release     chan struct{}
	nodes       []*tree.Node
	err         error
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   int
	lists   []*listCall
	listed  chan *listCall
	nodes   []*tree.Node
	listErr error

	createErr error
	voteErr   error
	deleteErr error
	counts    model.VoteCounts
}

// ListComments blocks on the call's release channel when the test queued
// one; otherwise it answers with nodes immediately.
func (f *fakeAPI) ListComments(ctx context.Context, postID uuid.UUID, newestFirst bool) ([]*tree.Node, error) {
	f.mu.Lock()
	f.calls++
	var call *listCall
	if len(f.lists) > 0 {
		call = f.lists[0]
		f.lists = f.lists[1:]
	}
	nodes, err := f.nodes, f.listErr
	f.mu.Unlock()

	if call == nil {
		return cloneNodes(nodes), err
	}

	call.newestFirst = newestFirst
	if f.listed != nil {
		f.listed <- call
	}
	<-call.release
	return call.nodes, call.err
}

func (f *fakeAPI) CreateComment(ctx context.Context, postID uuid.UUID, text string) (*tree.Node, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &tree.Node{ID: uuid.New(), PostID: postID, Text: text}, nil
}

func (f *fakeAPI) Reply(ctx context.Context, parentID uuid.UUID, text string) (*tree.Node, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &tree.Node{ID: uuid.New(), ParentID: &parentID, Text: text, Replies: []*tree.Node{}}, nil
}

func (f *fakeAPI) Vote(ctx context.Context, commentID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	if f.voteErr != nil {
		return nil, f.voteErr
	}
	counts := f.counts
	return &counts, nil
}

func (f *fakeAPI) DeleteComment(ctx context.Context, commentID uuid.UUID) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 1, nil
}

type reports struct {
	mu   sync.Mutex
	errs []error
}

func (r *reports) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

func (r *reports) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.errs...)
}

func node(text string, replies ...*tree.Node) *tree.Node {
	if replies == nil {
		replies = []*tree.Node{}
	}
	return &tree.Node{ID: uuid.New(), Text: text, Replies: replies}
}

func newSession(api API) (*Session, *reports) {
	r := &reports{}
	return New(api, uuid.New(), uuid.New(), nil, r), r
}

func TestRefetchLoadsTree(t *testing.T) {
	api := &fakeAPI{nodes: []*tree.Node{node("a", node("a.1", node("a.1.1"))), node("b")}}
	s, _ := newSession(api)

	assert.Equal(t, 0, s.TotalCount())
	assert.True(t, s.SortNewestFirst())

	require.NoError(t, s.Refetch(context.Background()))

	assert.Equal(t, 4, s.TotalCount())
	assert.Len(t, s.Tree(), 2)
	assert.False(t, s.IsLoading())
}

func TestRefetchFailureLeavesTreeEmpty(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("down")}
	s, r := newSession(api)

	err := s.Refetch(context.Background())

	assert.Error(t, err)
	assert.Empty(t, s.Tree())
	assert.Equal(t, 0, s.TotalCount())
	assert.False(t, s.IsLoading())
	assert.Empty(t, r.all(), "failed fetches are logged, not reported")
}

func TestSubmitTopLevelPrependsAndCounts(t *testing.T) {
	api := &fakeAPI{nodes: []*tree.Node{node("old")}}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))

	require.True(t, s.SubmitTopLevel(context.Background(), "new"))

	nodes := s.Tree()
	require.Len(t, nodes, 2)
	assert.Equal(t, "new", nodes[0].Text)
	assert.NotNil(t, nodes[0].Replies)
	assert.Equal(t, 2, s.TotalCount())
}

func TestSubmitTopLevelAppendsWhenOldestFirst(t *testing.T) {
	api := &fakeAPI{nodes: []*tree.Node{node("old")}}
	s, _ := newSession(api)
	require.NoError(t, s.SetSortNewestFirst(context.Background(), false))

	require.True(t, s.SubmitTopLevel(context.Background(), "new"))

	nodes := s.Tree()
	require.Len(t, nodes, 2)
	assert.Equal(t, "new", nodes[1].Text)
}

func TestSubmitValidation(t *testing.T) {
	api := &fakeAPI{}
	s, r := newSession(api)

	assert.False(t, s.SubmitTopLevel(context.Background(), "  <b> </b> "))
	assert.False(t, s.SubmitReply(context.Background(), uuid.New(), ""))

	anonymous := New(api, uuid.New(), uuid.Nil, nil, r)
	assert.False(t, anonymous.SubmitTopLevel(context.Background(), "hello"))
	assert.False(t, anonymous.Vote(context.Background(), uuid.New(), model.PolarityLike))
	assert.False(t, anonymous.Remove(context.Background(), uuid.New()))

	errs := r.all()
	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs[0], ErrEmptyComment)
	assert.ErrorIs(t, errs[1], ErrEmptyComment)
	assert.ErrorIs(t, errs[2], ErrLoginRequired)
	assert.Equal(t, 0, s.TotalCount())
}

func TestSubmitFailureIsReported(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("post not found")}
	s, r := newSession(api)

	assert.False(t, s.SubmitTopLevel(context.Background(), "hello"))

	require.Len(t, r.all(), 1)
	assert.EqualError(t, r.all()[0], "post not found")
	assert.Equal(t, 0, s.TotalCount())
}

func TestSubmitReplyNestsUnderParent(t *testing.T) {
	child := node("child")
	api := &fakeAPI{nodes: []*tree.Node{node("root", child), node("other")}}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))

	require.True(t, s.SubmitReply(context.Background(), child.ID, "deep"))

	found := tree.Find(s.Tree(), child.ID)
	require.NotNil(t, found)
	require.Len(t, found.Replies, 1)
	assert.Equal(t, "deep", found.Replies[0].Text)
	assert.Equal(t, 4, s.TotalCount())
}

func TestVotePatchesServerCounts(t *testing.T) {
	target := node("target")
	api := &fakeAPI{nodes: []*tree.Node{node("root", target)}, counts: model.VoteCounts{Likes: 3, Dislikes: 1}}
	s, r := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))

	require.True(t, s.Vote(context.Background(), target.ID, model.PolarityLike))

	found := tree.Find(s.Tree(), target.ID)
	assert.Equal(t, int64(3), found.Likes)
	assert.Equal(t, int64(1), found.Dislikes)

	api.voteErr = errors.New("already voted")
	assert.False(t, s.Vote(context.Background(), target.ID, model.PolarityLike))
	assert.Len(t, r.all(), 1)
	assert.Equal(t, int64(3), tree.Find(s.Tree(), target.ID).Likes)
}

func TestRemoveDropsSubtree(t *testing.T) {
	reply := node("reply", node("nested"))
	root := node("root", reply, node("sibling"))
	api := &fakeAPI{nodes: []*tree.Node{root, node("other")}}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))
	require.Equal(t, 5, s.TotalCount())

	require.True(t, s.Remove(context.Background(), reply.ID))
	assert.Equal(t, 3, s.TotalCount())

	require.True(t, s.Remove(context.Background(), root.ID))
	assert.Equal(t, 1, s.TotalCount())

	api.deleteErr = errors.New("not authorized")
	assert.False(t, s.Remove(context.Background(), s.Tree()[0].ID))
	assert.Equal(t, 1, s.TotalCount())
}

func TestPagination(t *testing.T) {
	nodes := make([]*tree.Node, 0, 12)
	for i := 0; i < 12; i++ {
		nodes = append(nodes, node("n"))
	}
	api := &fakeAPI{nodes: nodes}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))

	assert.Len(t, s.Visible(), PAGE_SIZE)
	assert.True(t, s.HasMore())

	s.LoadMore()
	assert.Len(t, s.Visible(), 2*PAGE_SIZE)

	s.LoadMore()
	assert.Len(t, s.Visible(), 12)
	assert.False(t, s.HasMore())
	assert.Equal(t, 12, s.TotalCount())
}

func TestSetSortRefetchesAndResetsPaging(t *testing.T) {
	api := &fakeAPI{lists: []*listCall{{release: make(chan struct{})}}, listed: make(chan *listCall, 1)}
	s, _ := newSession(api)
	s.LoadMore()

	done := make(chan error)
	go func() {
		done <- s.SetSortNewestFirst(context.Background(), false)
	}()

	call := <-api.listed
	assert.False(t, call.newestFirst)
	assert.True(t, s.IsLoading())
	call.nodes = []*tree.Node{node("x")}
	close(call.release)
	require.NoError(t, <-done)

	assert.False(t, s.SortNewestFirst())
	assert.False(t, s.IsLoading())
	assert.Len(t, s.Visible(), 1)

	// same order is a no-op
	require.NoError(t, s.SetSortNewestFirst(context.Background(), false))
	assert.Equal(t, 1, api.calls)
}

func TestStaleRefetchIsDropped(t *testing.T) {
	first := &listCall{release: make(chan struct{}), nodes: []*tree.Node{node("stale")}}
	second := &listCall{release: make(chan struct{}), nodes: []*tree.Node{node("fresh"), node("fresh too")}}
	api := &fakeAPI{lists: []*listCall{first, second}, listed: make(chan *listCall, 2)}
	s, _ := newSession(api)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Refetch(context.Background()))
	}()
	<-api.listed
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Refetch(context.Background()))
	}()
	<-api.listed

	close(second.release)
	require.Eventually(t, func() bool {
		return s.TotalCount() == 2
	}, time.Second, 5*time.Millisecond)

	close(first.release)
	wg.Wait()

	assert.Equal(t, 2, s.TotalCount())
	assert.Equal(t, "fresh", s.Tree()[0].Text)
	assert.False(t, s.IsLoading())
}

func TestRefetchRetriesAfterLocalMutation(t *testing.T) {
	loaded := []*tree.Node{node("c"), node("b", node("b.1")), node("a")}
	call := &listCall{release: make(chan struct{}), nodes: loaded}
	api := &fakeAPI{lists: []*listCall{call}, listed: make(chan *listCall, 1)}
	s, _ := newSession(api)

	done := make(chan error)
	go func() {
		done <- s.Refetch(context.Background())
	}()
	<-api.listed

	require.True(t, s.SubmitTopLevel(context.Background(), "written while loading"))

	// the server already holds the new comment when the retry lands
	api.mu.Lock()
	api.nodes = append([]*tree.Node{node("written while loading")}, cloneNodes(loaded)...)
	api.mu.Unlock()

	close(call.release)
	require.NoError(t, <-done)

	assert.Equal(t, 5, s.TotalCount())
	assert.Len(t, s.Tree(), 4)
	assert.Equal(t, "written while loading", s.Tree()[0].Text)
	assert.Equal(t, 2, api.calls)
	assert.False(t, s.IsLoading())
}

func TestSetSortAppliesOrderAfterVoteDuringFetch(t *testing.T) {
	first, second := node("first"), node("second")
	api := &fakeAPI{nodes: []*tree.Node{second, first}}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))
	require.Equal(t, "second", s.Tree()[0].Text)

	liked := *first
	liked.Likes = 1
	call := &listCall{release: make(chan struct{}), nodes: []*tree.Node{first, second}}
	api.mu.Lock()
	api.lists = []*listCall{call}
	api.listed = make(chan *listCall, 1)
	api.nodes = []*tree.Node{&liked, second}
	api.counts = model.VoteCounts{Likes: 1}
	api.mu.Unlock()

	done := make(chan error)
	go func() {
		done <- s.SetSortNewestFirst(context.Background(), false)
	}()
	<-api.listed

	require.True(t, s.Vote(context.Background(), first.ID, model.PolarityLike))

	close(call.release)
	require.NoError(t, <-done)

	nodes := s.Tree()
	require.Len(t, nodes, 2)
	assert.False(t, s.SortNewestFirst())
	assert.Equal(t, "first", nodes[0].Text)
	assert.Equal(t, "second", nodes[1].Text)
	assert.Equal(t, int64(1), nodes[0].Likes)
	assert.Equal(t, 3, api.calls)
}

func TestTreeReturnsCopies(t *testing.T) {
	api := &fakeAPI{nodes: []*tree.Node{node("root", node("reply"))}}
	s, _ := newSession(api)
	require.NoError(t, s.Refetch(context.Background()))

	nodes := s.Tree()
	nodes[0].Replies = nil
	nodes[0].Text = "changed"

	assert.Equal(t, 2, s.TotalCount())
	assert.Equal(t, "root", s.Tree()[0].Text)
}
