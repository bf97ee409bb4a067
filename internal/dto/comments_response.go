package dto

type DeleteCommentResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type RecountResponse struct {
	Comments int64 `json:"comments"`
}
