package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kkuzmin/gabble/internal/domain"
)

// UserStore persists accounts. Users are created at registration and
// never deleted.
type UserStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserStore(db *gorm.DB, timeout time.Duration) *UserStore {
	return &UserStore{db: db, timeout: timeout}
}

// Create inserts a new user; a taken username yields ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	return classify(s.db.WithContext(ctx).Create(user).Error)
}

// FindByUsername loads a user by username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
