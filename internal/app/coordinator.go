package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/domain"
	"github.com/kkuzmin/gabble/internal/store"
)

// Coordinator owns the protocol that keeps durable room membership and
// live subscriptions consistent. It stores neither: rooms live in the
// store, subscriptions in the registry. Every mutating transition runs
// under a per-room mutex, held for the whole transition and released on
// every exit path; durable writes happen before subscription changes so
// a failed subscribe never hides a granted membership.
type Coordinator struct {
	rooms *store.RoomStore
	reg   *Registry
	locks *KeyedMutex
}

func NewCoordinator(rooms *store.RoomStore, reg *Registry) *Coordinator {
	return &Coordinator{rooms: rooms, reg: reg, locks: NewKeyedMutex()}
}

// Create creates a room with identity as creator and sole member, and
// immediately subscribes the creating connection to the new group —
// create+join is one transition from the caller's perspective. A name
// collision is an informational notice, not an error.
func (c *Coordinator) Create(ctx context.Context, name domain.RoomName, identity string, conn ConnID) Outcome {
	key := "name:" + string(name)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	room, err := c.rooms.CreateRoom(ctx, name, identity)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return notice(KindAlreadyExists, fmt.Sprintf("Room %s already exists!", name))
		}
		return storeOutcome(err)
	}

	c.reg.Subscribe(conn, room.Name)
	log.Info().Str("module", "app.coordinator").Str("room", string(room.ID)).Str("creator", identity).Msg("room created")
	return ok(room)
}

// Join adds identity to the room's durable member set, then subscribes
// the connection to the group. Re-joining is idempotent: an existing
// member is simply re-subscribed, which covers reconnect after a
// temporary leave.
func (c *Coordinator) Join(ctx context.Context, id domain.RoomID, identity string, conn ConnID) Outcome {
	key := "id:" + string(id)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	room, err := c.rooms.GetRoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindNotFound, "Room doesn't exist!")
		}
		return storeOutcome(err)
	}
	if err := c.rooms.AddMember(ctx, id, identity); err != nil {
		return storeOutcome(err)
	}

	c.reg.Subscribe(conn, room.Name)
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Str("identity", identity).Msg("joined room")
	return ok(room)
}

// Leave removes identity from the durable member set and drops the live
// subscription.
func (c *Coordinator) Leave(ctx context.Context, id domain.RoomID, identity string, conn ConnID) Outcome {
	key := "id:" + string(id)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	room, err := c.rooms.GetRoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindNotFound, "Room doesn't exist!")
		}
		return storeOutcome(err)
	}
	if err := c.rooms.RemoveMember(ctx, id, identity); err != nil {
		return storeOutcome(err)
	}

	c.reg.Unsubscribe(conn, room.Name)
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Str("identity", identity).Msg("left room")
	return ok(room)
}

// TemporaryLeave drops the live subscription only; durable membership
// is preserved. This lets a user navigate away from a room's view
// without giving up membership.
func (c *Coordinator) TemporaryLeave(ctx context.Context, id domain.RoomID, identity string, conn ConnID) Outcome {
	key := "id:" + string(id)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	room, err := c.rooms.GetRoomByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindNotFound, "Room doesn't exist!")
		}
		return storeOutcome(err)
	}

	c.reg.Unsubscribe(conn, room.Name)
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Str("identity", identity).Msg("temporarily left room")
	return ok(room)
}

// Switch moves the connection's view from one room to another:
// unsubscribe from the leave-group, subscribe to the join-group. No
// durable membership is granted in the join room; a switch into a room
// the identity never joined is a view-only subscription.
func (c *Coordinator) Switch(ctx context.Context, leaveID, joinID domain.RoomID, identity string, conn ConnID) Outcome {
	keys := []string{"id:" + string(leaveID), "id:" + string(joinID)}
	if keys[1] < keys[0] {
		keys[0], keys[1] = keys[1], keys[0]
	}
	c.locks.Lock(keys[0])
	defer c.locks.Unlock(keys[0])
	if keys[0] != keys[1] {
		c.locks.Lock(keys[1])
		defer c.locks.Unlock(keys[1])
	}

	leaveRoom, err := c.rooms.GetRoomByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindNotFound, "Room doesn't exist!")
		}
		return storeOutcome(err)
	}
	joinRoom, err := c.rooms.GetRoomByID(ctx, joinID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindNotFound, "Room doesn't exist!")
		}
		return storeOutcome(err)
	}

	c.reg.Unsubscribe(conn, leaveRoom.Name)
	c.reg.Subscribe(conn, joinRoom.Name)
	log.Info().Str("module", "app.coordinator").
		Str("from", string(leaveID)).Str("to", string(joinID)).Str("identity", identity).Msg("switched room")
	return Outcome{Kind: KindOK, Room: joinRoom, From: leaveRoom}
}

// Delete removes a room. Only the creator may delete; anyone else (or a
// missing room — the two are indistinguishable) gets a Forbidden
// notice with no mutation. Live subscribers are not evicted: the group
// dangles until they disconnect or switch, and simply stops being a
// broadcast target.
func (c *Coordinator) Delete(ctx context.Context, id domain.RoomID, identity string) Outcome {
	key := "id:" + string(id)
	c.locks.Lock(key)
	defer c.locks.Unlock(key)

	room, err := c.rooms.GetRoomByIDForOwner(ctx, id, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notice(KindForbidden, "FORBIDDEN!")
		}
		return storeOutcome(err)
	}
	if err := c.rooms.DeleteRoom(ctx, id); err != nil {
		return storeOutcome(err)
	}

	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Str("identity", identity).Msg("room deleted")
	return ok(room)
}

// RoomList groups a user's rooms by whether they created them.
type RoomList struct {
	Own    []domain.RoomSummary `json:"own"`
	Others []domain.RoomSummary `json:"others"`
}

// ListRooms returns every room where identity is creator or member.
// Read-only; takes no room lock.
func (c *Coordinator) ListRooms(ctx context.Context, identity string) (*RoomList, error) {
	rooms, err := c.rooms.ListRoomsForUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	list := &RoomList{
		Own:    []domain.RoomSummary{},
		Others: []domain.RoomSummary{},
	}
	for _, r := range rooms {
		s := domain.RoomSummary{ID: r.ID, Name: r.Name}
		if r.Creator == identity {
			list.Own = append(list.Own, s)
		} else {
			list.Others = append(list.Others, s)
		}
	}
	return list, nil
}
