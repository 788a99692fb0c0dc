package app

import (
	"errors"

	"github.com/kkuzmin/gabble/internal/domain"
	"github.com/kkuzmin/gabble/internal/store"
)

// Kind classifies a transition result. Every coordinator operation
// resolves to exactly one kind; nothing escapes as an unhandled fault.
type Kind int

const (
	KindOK Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindForbidden
	KindAlreadyExists
	KindStoreUnavailable
)

// Outcome is the typed result of a coordinator transition. The
// transport adapter decides how each kind is rendered: OK may fan out
// to a group, everything else is a notice to the originator only.
type Outcome struct {
	Kind    Kind
	Message string
	// Room is the room acted upon, set on success.
	Room *domain.Room
	// From is the room left during a switch.
	From *domain.Room
}

func ok(room *domain.Room) Outcome { return Outcome{Kind: KindOK, Room: room} }

func notice(kind Kind, msg string) Outcome { return Outcome{Kind: kind, Message: msg} }

// IsOK reports whether the transition mutated state as requested.
func (o Outcome) IsOK() bool { return o.Kind == KindOK }

// storeOutcome maps a store error onto the taxonomy. Callers handle
// ErrAlreadyExists and ErrNotFound where the message depends on the
// operation; everything else is a store failure.
func storeOutcome(err error) Outcome {
	if errors.Is(err, store.ErrUnavailable) {
		return notice(KindStoreUnavailable, "Store unavailable, try again later.")
	}
	return notice(KindStoreUnavailable, err.Error())
}
