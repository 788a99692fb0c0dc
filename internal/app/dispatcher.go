package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/domain"
)

// Dispatcher delivers payloads to live connections: either every
// current subscriber of a group, or a single connection. Delivery is
// best-effort, no acknowledgment; within one group and one calling
// goroutine, emission order is preserved.
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Broadcast sends v to every connection currently subscribed to the
// group. A group with zero subscribers is a no-op. Connections whose
// send buffer is full are skipped, not blocked on.
func (d *Dispatcher) Broadcast(group domain.RoomName, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("broadcast marshal")
		return
	}
	sent := 0
	for _, id := range d.reg.MembersOf(group) {
		sender, ok := d.reg.SenderOf(id)
		if !ok {
			continue
		}
		if err := sender.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "app.dispatcher").Str("conn", string(id)).Msg("dropped frame")
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.dispatcher").Str("group", string(group)).Int("sent", sent).Msg("broadcast")
}

// SendTo unicasts v to one connection. Silently drops if the connection
// is already gone; disconnect-vs-send races are expected.
func (d *Dispatcher) SendTo(id ConnID, v any) {
	sender, ok := d.reg.SenderOf(id)
	if !ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("sendTo marshal")
		return
	}
	if err := sender.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("conn", string(id)).Msg("dropped frame")
	}
}
