package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/domain"
)

// ConnID identifies one live connection for its lifetime.
type ConnID string

// Sender is the transport endpoint of a connection. Owned by the
// adapter; the adapter must Close() it.
type Sender interface {
	TrySend(data []byte) error
	Close()
}

type connEntry struct {
	identity string
	sender   Sender

	mu     sync.Mutex
	groups map[domain.RoomName]struct{}
}

// Registry tracks every live connection: its authenticated identity and
// the broadcast groups it currently subscribes to. It is an injectable
// service with its own locking, independent of the coordinator's room
// locks, since one connection may touch several rooms.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*connEntry

	groupMu sync.RWMutex
	groups  map[domain.RoomName]map[ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[ConnID]*connEntry),
		groups: make(map[domain.RoomName]map[ConnID]struct{}),
	}
}

// Bind registers a connection under its authenticated identity.
func (r *Registry) Bind(id ConnID, identity string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		identity: identity,
		sender:   sender,
		groups:   make(map[domain.RoomName]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("identity", identity).Msg("bound connection")
}

// Identity returns the identity bound to a connection.
func (r *Registry) Identity(id ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	return e.identity, true
}

// SenderOf returns the transport endpoint of a live connection.
func (r *Registry) SenderOf(id ConnID) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.sender, true
}

// Subscribe enrolls the connection in a group. Subscribing twice is a
// no-op. Returns false if the connection is gone (disconnect races are
// expected and non-fatal).
func (r *Registry) Subscribe(id ConnID, group domain.RoomName) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	e.groups[group] = struct{}{}
	e.mu.Unlock()

	r.groupMu.Lock()
	members, ok := r.groups[group]
	if !ok {
		members = make(map[ConnID]struct{})
		r.groups[group] = members
	}
	members[id] = struct{}{}
	r.groupMu.Unlock()

	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("group", string(group)).Msg("subscribed")
	return true
}

// Unsubscribe drops the connection's enrollment in a group. Absent
// enrollments are a no-op.
func (r *Registry) Unsubscribe(id ConnID, group domain.RoomName) {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if ok {
		e.mu.Lock()
		delete(e.groups, group)
		e.mu.Unlock()
	}

	r.groupMu.Lock()
	if members, ok := r.groups[group]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.groups, group)
		}
	}
	r.groupMu.Unlock()

	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("group", string(group)).Msg("unsubscribed")
}

// MembersOf snapshots the connections currently subscribed to a group.
func (r *Registry) MembersOf(group domain.RoomName) []ConnID {
	r.groupMu.RLock()
	defer r.groupMu.RUnlock()
	members := r.groups[group]
	out := make([]ConnID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// Groups snapshots the groups a connection currently subscribes to.
func (r *Registry) Groups(id ConnID) []domain.RoomName {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.RoomName, 0, len(e.groups))
	for g := range e.groups {
		out = append(out, g)
	}
	return out
}

// UnbindAll removes the connection from every group and forgets it.
// Called by the transport on disconnect.
func (r *Registry) UnbindAll(id ConnID) {
	r.mu.Lock()
	e, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	groups := make([]domain.RoomName, 0, len(e.groups))
	for g := range e.groups {
		groups = append(groups, g)
	}
	e.groups = make(map[domain.RoomName]struct{})
	e.mu.Unlock()

	r.groupMu.Lock()
	for _, g := range groups {
		if members, ok := r.groups[g]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(r.groups, g)
			}
		}
	}
	r.groupMu.Unlock()

	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}
