package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/domain"
)

func (ctl *Controller) handleCreate(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil || strings.TrimSpace(p.Room) == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing room.")
		return
	}

	out := ctl.coord.Create(ctx, domain.RoomName(p.Room), identity, id)
	if !out.IsOK() {
		ctl.reply(id, evtCreateResponse, out)
		return
	}

	ctl.notify(id, evtCreateResponse, fmt.Sprintf("Room %s created!", out.Room.Name))
	ctl.disp.SendTo(id, joinResponse{
		Event:    evtJoinResponse,
		Message:  fmt.Sprintf("%s joined %s!", identity, out.Room.Name),
		RoomID:   out.Room.ID,
		RoomName: out.Room.Name,
	})
}

func (ctl *Controller) handleJoin(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p roomIDPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing roomId.")
		return
	}

	out := ctl.coord.Join(ctx, domain.RoomID(p.RoomID), identity, id)
	if !out.IsOK() {
		ctl.reply(id, evtJoinResponse, out)
		return
	}

	ctl.disp.SendTo(id, joinResponse{
		Event:    evtJoinResponse,
		Message:  fmt.Sprintf("%s joined %s!", identity, out.Room.Name),
		RoomID:   out.Room.ID,
		RoomName: out.Room.Name,
	})
}

func (ctl *Controller) handleLeave(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p roomIDPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing roomId.")
		return
	}

	out := ctl.coord.Leave(ctx, domain.RoomID(p.RoomID), identity, id)
	if !out.IsOK() {
		ctl.reply(id, evtLeaveResponse, out)
		return
	}
	ctl.notify(id, evtLeaveResponse, fmt.Sprintf("%s left %s!", identity, out.Room.Name))
}

func (ctl *Controller) handleTempLeave(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p roomIDPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing roomId.")
		return
	}

	out := ctl.coord.TemporaryLeave(ctx, domain.RoomID(p.RoomID), identity, id)
	if !out.IsOK() {
		ctl.reply(id, evtTempLeaveResponse, out)
		return
	}
	ctl.notify(id, evtTempLeaveResponse,
		fmt.Sprintf("%s has left the room %s temporarily.", identity, out.Room.Name))
}

func (ctl *Controller) handleSwitch(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p switchPayload
	if err := json.Unmarshal(data, &p); err != nil || p.LeaveRoom == "" || p.JoinRoom == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing leaveRoom or joinRoom.")
		return
	}

	out := ctl.coord.Switch(ctx, domain.RoomID(p.LeaveRoom), domain.RoomID(p.JoinRoom), identity, id)
	if !out.IsOK() {
		ctl.reply(id, evtSwitchResponse, out)
		return
	}

	ctl.notify(id, evtSwitchResponse, fmt.Sprintf(
		"%s has left the room %s and joined the room %s", identity, out.From.Name, out.Room.Name))
	ctl.disp.SendTo(id, joinResponse{
		Event:    evtJoinResponse,
		Message:  fmt.Sprintf("%s joined %s!", identity, out.Room.Name),
		RoomID:   out.Room.ID,
		RoomName: out.Room.Name,
	})
}

func (ctl *Controller) handleDelete(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var p roomIDPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing roomId.")
		return
	}

	out := ctl.coord.Delete(ctx, domain.RoomID(p.RoomID), identity)
	if !out.IsOK() {
		ctl.reply(id, evtDeleteResponse, out)
		return
	}

	// Deletion is announced to the group; after this the room name is
	// never a broadcast target again.
	ctl.disp.Broadcast(out.Room.Name, response{
		Event:   evtDeleteResponse,
		Message: fmt.Sprintf("%s deleted by owner [%s]", out.Room.Name, identity),
	})
}

func (ctl *Controller) handleMessage(_ context.Context, id app.ConnID, identity string, data []byte) {
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Message == "" {
		ctl.notifyError(id, evtError, "Bad Request: Missing room or message.")
		return
	}
	if !ctl.limiter.Allow(identity) {
		ctl.notifyError(id, evtError, "Too many messages, slow down.")
		return
	}

	ctl.disp.Broadcast(domain.RoomName(p.Room), chatMessage{
		Event:   evtMessage,
		Message: strings.TrimSpace(p.Message),
		Sender:  identity,
		Room:    p.Room,
	})
}
