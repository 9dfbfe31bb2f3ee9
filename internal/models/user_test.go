package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Reversible hasher, good enough to check the User methods
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	return "hashed:" + password, nil
}

func (plainHasher) Compare(hashedPassword string, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func TestUser_Password(t *testing.T) {
	t.Run("set and check ok", func(t *testing.T) {
		u := User{Username: "susan"}

		err := u.SetPassword("cat", plainHasher{})

		require.NoError(t, err)
		require.NotEqual(t, "cat", u.PasswordHash, "raw password must not be stored")
		require.True(t, u.CheckPassword("cat", plainHasher{}))
		require.False(t, u.CheckPassword("dog", plainHasher{}))
	})

	t.Run("hasher error keeps old hash", func(t *testing.T) {
		u := User{PasswordHash: "hashed:old"}

		err := u.SetPassword("", plainHasher{})

		require.Error(t, err)
		require.Equal(t, "hashed:old", u.PasswordHash)
	})

	t.Run("no password never matches", func(t *testing.T) {
		u := User{Username: "john"}

		require.False(t, u.CheckPassword("", plainHasher{}))
		require.False(t, u.CheckPassword("anything", plainHasher{}))
	})
}

func TestUser_Avatar(t *testing.T) {
	u := User{Email: "john@example.com"}

	require.Equal(t,
		"https://www.gravatar.com/avatar/d4c74594d841139328695756648b6bd6?d=identicon&s=128",
		u.Avatar(128),
	)

	t.Run("email normalized", func(t *testing.T) {
		other := User{Email: "  John@Example.com "}
		require.Equal(t, u.Avatar(36), other.Avatar(36))
	})

	t.Run("author avatar same as user", func(t *testing.T) {
		a := Author{Email: "john@example.com"}
		require.Equal(t, u.Avatar(70), a.Avatar(70))
	})
}
