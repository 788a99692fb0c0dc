// Package domain contains persistent entities without behavior, just meta-data.
package domain

import (
	"errors"
	"strings"
)

const (
	MinUsernameLen = 4
	MaxUsernameLen = 10
)

var (
	ErrUsernameEmpty  = errors.New("username empty")
	ErrUsernameLength = errors.New("username length should be between 4 to 10 characters")
)

// User is a registered account. Usernames are globally unique and double
// as the identity string bound to live connections.
type User struct {
	Username     string `gorm:"primaryKey;type:text" json:"username"`
	PasswordHash string `gorm:"not null;type:text" json:"-"`
}

func (User) TableName() string { return "users" }

// ValidateUsername enforces the registration constraint. Existing users
// are never re-validated; the rule applies at creation only.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) < MinUsernameLen || len(username) > MaxUsernameLen {
		return ErrUsernameLength
	}
	return nil
}
