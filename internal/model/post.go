package model

import "github.com/google/uuid"

// Post is the slice of the post-service record this service reads and
// updates: the owner (for notifications), the title (for recent
// comments) and the denormalized comment counter.
type Post struct {
	ID       uuid.UUID `json:"id"`
	AuthorID uuid.UUID `json:"author_id"`
	Title    string    `json:"title"`
	Comments int64     `json:"comments"`
}
