package model

import "github.com/google/uuid"

type CachedUser struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	ProfilePic string    `json:"profile_pic"`
}
