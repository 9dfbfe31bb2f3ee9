package sqlite

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/models"
)

// gorm schema; uuids are kept as text

type userRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt    time.Time `gorm:"not null"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex:users_username_key"`
	Email        string    `gorm:"type:varchar(120);not null;uniqueIndex:users_email_key"`
	PasswordHash *string   `gorm:"type:varchar(256)"`
	AboutMe      *string   `gorm:"type:varchar(140)"`
	LastSeen     time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type postRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Body      string    `gorm:"type:varchar(140);not null"`
	Timestamp time.Time `gorm:"not null;index:posts_timestamp_idx"`
	UserID    string    `gorm:"type:varchar(36);not null;index:posts_user_id_idx"`
	User      userRow   `gorm:"foreignKey:UserID;references:ID"`
}

func (postRow) TableName() string { return "posts" }

type rememberTokenRow struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `gorm:"type:varchar(36);not null;index:remember_tokens_user_id_idx"`
	User      userRow    `gorm:"foreignKey:UserID;references:ID"`
	Token     string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	RevokedAt *time.Time
}

func (rememberTokenRow) TableName() string { return "remember_tokens" }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:           uuid.MustParse(r.ID),
		CreatedAt:    r.CreatedAt,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: deref(r.PasswordHash),
		AboutMe:      deref(r.AboutMe),
		LastSeen:     r.LastSeen,
	}
}

func (r postRow) toModel() models.Post {
	p := models.Post{
		ID:        uuid.MustParse(r.ID),
		Body:      r.Body,
		Timestamp: r.Timestamp,
		UserID:    uuid.MustParse(r.UserID),
	}
	if r.User.ID != "" {
		p.Author = models.Author{ID: p.UserID, Username: r.User.Username, Email: r.User.Email}
	}
	return p
}

func (r rememberTokenRow) toModel() models.RememberToken {
	return models.RememberToken{
		ID:        uuid.MustParse(r.ID),
		UserID:    uuid.MustParse(r.UserID),
		Token:     r.Token,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		RevokedAt: r.RevokedAt,
	}
}
