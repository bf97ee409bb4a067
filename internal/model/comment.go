package model

import (
	"time"

	"github.com/google/uuid"
)

type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

func (p Polarity) Valid() bool {
	return p == PolarityLike || p == PolarityDislike
}

type Comment struct {
	ID            uuid.UUID   `json:"id"`
	PostID        uuid.UUID   `json:"post_id"`
	ParentID      *uuid.UUID  `json:"parent_id"`
	AuthorID      uuid.UUID   `json:"author_id"`
	Text          string      `json:"text"`
	Children      []uuid.UUID `json:"children"`
	LikeVoters    []uuid.UUID `json:"like_voters"`
	DislikeVoters []uuid.UUID `json:"dislike_voters"`
	Likes         int64       `json:"likes"`
	Dislikes      int64       `json:"dislikes"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// HasVoted reports whether userID is present in either voter set.
func (c *Comment) HasVoted(userID uuid.UUID) bool {
	for _, id := range c.LikeVoters {
		if id == userID {
			return true
		}
	}
	for _, id := range c.DislikeVoters {
		if id == userID {
			return true
		}
	}
	return false
}

type VoteCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}
