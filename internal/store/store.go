// Package store provides durable persistence for users and rooms on
// GORM + SQLite. All lookups run under a bounded timeout; anything that
// is not a not-found or a unique-constraint violation surfaces as
// ErrUnavailable so callers never hang on a dead store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kkuzmin/gabble/internal/domain"
)

var (
	// ErrAlreadyExists is returned when a unique constraint rejects an insert.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound is returned when a lookup resolves nothing.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backing store cannot be reached
	// or does not answer within the configured timeout.
	ErrUnavailable = errors.New("store unavailable")
)

// Open opens the SQLite database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Room{}, &domain.RoomMember{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// classify maps a gorm error onto the store's sentinel taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// bound derives the per-call context for a store operation.
func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
