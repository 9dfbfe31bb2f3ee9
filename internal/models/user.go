package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Hash and compare user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword string, password string) error
}

type User struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Username     string
	Email        string
	PasswordHash string // empty if password is not set
	AboutMe      string
	LastSeen     time.Time
}

func (u *User) SetPassword(password string, h PasswordHasher) error {
	hash, err := h.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// Users without password never pass the check
func (u *User) CheckPassword(password string, h PasswordHasher) bool {
	if u.PasswordHash == "" {
		return false
	}
	return h.Compare(u.PasswordHash, password) == nil
}

// Gravatar identicon URL for the user email
func (u *User) Avatar(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=%d", hex.EncodeToString(sum[:]), size)
}
