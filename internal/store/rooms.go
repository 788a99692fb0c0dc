package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kkuzmin/gabble/internal/domain"
)

// RoomStore is the durable side of room state. It owns Room and
// RoomMember records exclusively; live subscription state lives in the
// connection registry and never touches this type.
type RoomStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRoomStore(db *gorm.DB, timeout time.Duration) *RoomStore {
	return &RoomStore{db: db, timeout: timeout}
}

// CreateRoom inserts a room with creator as its sole member. The
// insert and the membership row commit atomically; a name collision
// yields ErrAlreadyExists with nothing written.
func (s *RoomStore) CreateRoom(ctx context.Context, name domain.RoomName, creator string) (*domain.Room, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	room := &domain.Room{
		ID:      domain.RoomID(uuid.NewString()),
		Name:    name,
		Creator: creator,
		Members: []domain.RoomMember{{Username: creator}},
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(room).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return room, nil
}

// GetRoomByID loads a room with its member set.
func (s *RoomStore) GetRoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var room domain.Room
	err := s.db.WithContext(ctx).Preload("Members").First(&room, "id = ?", string(id)).Error
	if err != nil {
		return nil, classify(err)
	}
	return &room, nil
}

// GetRoomByIDForOwner loads a room only if identity is its creator.
// A missing room and a non-creator caller are indistinguishable to the
// caller, both yield ErrNotFound.
func (s *RoomStore) GetRoomByIDForOwner(ctx context.Context, id domain.RoomID, identity string) (*domain.Room, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var room domain.Room
	err := s.db.WithContext(ctx).Preload("Members").
		First(&room, "id = ? AND creator = ?", string(id), identity).Error
	if err != nil {
		return nil, classify(err)
	}
	return &room, nil
}

// DeleteRoom removes the room record and its membership rows. Ownership
// must already have been authorized via GetRoomByIDForOwner.
func (s *RoomStore) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.RoomMember{}, "room_id = ?", string(id)).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Room{}, "id = ?", string(id)).Error
	})
	return classify(err)
}

// AddMember adds identity to the room's member set. Re-adding an
// existing member is a no-op.
func (s *RoomStore) AddMember(ctx context.Context, id domain.RoomID, identity string) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Create(&domain.RoomMember{RoomID: id, Username: identity}).Error
	if errors.Is(classify(err), ErrAlreadyExists) {
		return nil
	}
	return classify(err)
}

// RemoveMember removes identity from the room's member set. Removing an
// absent member is a no-op.
func (s *RoomStore) RemoveMember(ctx context.Context, id domain.RoomID, identity string) error {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).
		Delete(&domain.RoomMember{}, "room_id = ? AND username = ?", string(id), identity).Error
	return classify(err)
}

// ListRoomsForUser returns every room where identity is the creator or
// a member, ordered by name for stable listings.
func (s *RoomStore) ListRoomsForUser(ctx context.Context, identity string) ([]domain.Room, error) {
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()

	var rooms []domain.Room
	err := s.db.WithContext(ctx).
		Distinct("rooms.*").
		Joins("LEFT JOIN room_members ON room_members.room_id = rooms.id").
		Where("rooms.creator = ? OR room_members.username = ?", identity, identity).
		Order("rooms.name").
		Find(&rooms).Error
	if err != nil {
		return nil, classify(err)
	}
	return rooms, nil
}
