// Package memory is a process-local store driver. It backs the "memory"
// storage driver for local development and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BloggingApp/comment-service/internal/model"
	"github.com/BloggingApp/comment-service/internal/repository/store"
	"github.com/google/uuid"
)

type db struct {
	mu       sync.RWMutex
	seq      int64
	comments map[uuid.UUID]*commentRecord
	posts    map[uuid.UUID]*model.Post
	users    map[uuid.UUID]*model.CachedUser
	now      func() time.Time
}

type commentRecord struct {
	seq     int64
	comment model.Comment
}

// New returns a Store whose three repositories share one in-memory database.
func New() *store.Store {
	d := &db{
		comments: make(map[uuid.UUID]*commentRecord),
		posts:    make(map[uuid.UUID]*model.Post),
		users:    make(map[uuid.UUID]*model.CachedUser),
		now:      time.Now,
	}

	return &store.Store{
		Comment:   &commentRepo{db: d},
		Post:      &postRepo{db: d},
		UserCache: &userCacheRepo{db: d},
	}
}

const DEMO_POST_TITLE = "Demo post"

// NewDemo returns a store holding a single post, so a dev server on the
// memory driver accepts comments without a post-service behind it.
func NewDemo(postID uuid.UUID, authorID uuid.UUID) *store.Store {
	s := New()
	SeedPost(s, model.Post{ID: postID, AuthorID: authorID, Title: DEMO_POST_TITLE})
	return s
}

// SeedPost stores a post record. Posts are owned by the post-service, so
// the memory driver is the only one that lets callers create them.
func SeedPost(s *store.Store, post model.Post) {
	r := s.Post.(*postRepo)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p := post
	r.db.posts[p.ID] = &p
}

func copyComment(c model.Comment) *model.Comment {
	out := c
	out.Children = append([]uuid.UUID(nil), c.Children...)
	out.LikeVoters = append([]uuid.UUID(nil), c.LikeVoters...)
	out.DislikeVoters = append([]uuid.UUID(nil), c.DislikeVoters...)
	if c.ParentID != nil {
		parentID := *c.ParentID
		out.ParentID = &parentID
	}
	return &out
}

// sorted returns copies of the records matching keep, ordered by insertion.
func (d *db) sorted(keep func(*model.Comment) bool) []*model.Comment {
	records := make([]*commentRecord, 0)
	for _, rec := range d.comments {
		if keep(&rec.comment) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})

	comments := make([]*model.Comment, 0, len(records))
	for _, rec := range records {
		comments = append(comments, copyComment(rec.comment))
	}
	return comments
}

type commentRepo struct {
	db *db
}

func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	comment.ID = uuid.New()
	comment.CreatedAt = r.db.now()
	comment.Children = nil
	comment.LikeVoters = nil
	comment.DislikeVoters = nil
	comment.Likes = 0
	comment.Dislikes = 0

	if comment.ParentID != nil {
		parent, ok := r.db.comments[*comment.ParentID]
		if !ok {
			return nil, store.ErrNotFound
		}
		parent.comment.Children = append(parent.comment.Children, comment.ID)
	}

	r.db.seq++
	r.db.comments[comment.ID] = &commentRecord{seq: r.db.seq, comment: comment}

	return copyComment(comment), nil
}

func (r *commentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec, ok := r.db.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyComment(rec.comment), nil
}

func (r *commentRepo) FindPostComments(ctx context.Context, postID uuid.UUID) ([]*model.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.sorted(func(c *model.Comment) bool {
		return c.PostID == postID
	}), nil
}

func (r *commentRepo) FindReplies(ctx context.Context, parentID uuid.UUID) ([]*model.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.db.sorted(func(c *model.Comment) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	}), nil
}

func (r *commentRepo) FindAuthorComments(ctx context.Context, authorID uuid.UUID, limit int) ([]*model.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	comments := r.db.sorted(func(c *model.Comment) bool {
		return c.AuthorID == authorID
	})

	// newest first
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (r *commentRepo) AddVoter(ctx context.Context, commentID uuid.UUID, userID uuid.UUID, polarity model.Polarity) (*model.VoteCounts, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec, ok := r.db.comments[commentID]
	if !ok {
		return nil, store.ErrNotFound
	}

	c := &rec.comment
	if c.HasVoted(userID) {
		return nil, store.ErrAlreadyVoted
	}

	switch polarity {
	case model.PolarityLike:
		c.LikeVoters = append(c.LikeVoters, userID)
		c.Likes = int64(len(c.LikeVoters))
	case model.PolarityDislike:
		c.DislikeVoters = append(c.DislikeVoters, userID)
		c.Dislikes = int64(len(c.DislikeVoters))
	}

	return &model.VoteCounts{Likes: c.Likes, Dislikes: c.Dislikes}, nil
}

func (r *commentRepo) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		rec, ok := r.db.comments[id]
		if !ok {
			continue
		}
		if rec.comment.ParentID != nil {
			if parent, ok := r.db.comments[*rec.comment.ParentID]; ok {
				parent.comment.Children = removeID(parent.comment.Children, id)
			}
		}
		delete(r.db.comments, id)
		deleted++
	}

	return deleted, nil
}

func (r *commentRepo) CountPostComments(ctx context.Context, postID uuid.UUID) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var count int64
	for _, rec := range r.db.comments {
		if rec.comment.PostID == postID {
			count++
		}
	}
	return count, nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

type postRepo struct {
	db *db
}

func (r *postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	post, ok := r.db.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := *post
	return &p, nil
}

func (r *postRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	posts := make(map[uuid.UUID]*model.Post, len(ids))
	for _, id := range ids {
		if post, ok := r.db.posts[id]; ok {
			p := *post
			posts[id] = &p
		}
	}
	return posts, nil
}

func (r *postRepo) IncrComments(ctx context.Context, id uuid.UUID, delta int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	post, ok := r.db.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	post.Comments += delta
	return nil
}

func (r *postRepo) SetComments(ctx context.Context, id uuid.UUID, comments int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	post, ok := r.db.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	post.Comments = comments
	return nil
}

type userCacheRepo struct {
	db *db
}

func (r *userCacheRepo) Create(ctx context.Context, user model.CachedUser) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u := user
	r.db.users[u.ID] = &u
	return nil
}

func (r *userCacheRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if err := store.CheckUserUpdates(updates); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil
	}
	if username, ok := updates["username"]; ok {
		user.Username = username.(string)
	}
	if profilePic, ok := updates["profile_pic"]; ok {
		user.ProfilePic = profilePic.(string)
	}
	return nil
}

func (r *userCacheRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *user
	return &u, nil
}
