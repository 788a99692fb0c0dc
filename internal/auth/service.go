package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/kkuzmin/gabble/internal/domain"
	"github.com/kkuzmin/gabble/internal/store"
)

var (
	// ErrUserExists is returned when the username is already taken.
	ErrUserExists = errors.New("username already exists")
	// ErrWeakPassword is returned when the password is shorter than 8 characters.
	ErrWeakPassword = errors.New("password length must be greater than 8")
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords must match")
	// ErrBadCredentials is returned on login with an unknown user or wrong password.
	ErrBadCredentials = errors.New("invalid username or password")
)

// Service handles registration and login against the user store.
type Service struct {
	users  *store.UserStore
	hasher *PasswordHasher
	tokens *TokenManager
}

func NewService(users *store.UserStore, hasher *PasswordHasher, tokens *TokenManager) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Register validates the credentials, creates the account, and returns
// a bearer token for the new identity.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (string, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return "", err
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	if len(password) < 8 {
		return "", ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrUserExists
		}
		return "", err
	}
	return s.tokens.Issue(username)
}

// Login verifies the credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrBadCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrBadCredentials
	}
	return s.tokens.Issue(username)
}
