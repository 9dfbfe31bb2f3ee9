package models

import (
	"time"

	"github.com/google/uuid"
)

const PostBodyMaxLen = 140

type Post struct {
	ID        uuid.UUID
	Body      string
	Timestamp time.Time
	UserID    uuid.UUID

	// Filled by list queries only
	Author Author
}

type Author struct {
	ID       uuid.UUID
	Username string
	Email    string
}

func (a Author) Avatar(size int) string {
	u := User{Email: a.Email}
	return u.Avatar(size)
}
