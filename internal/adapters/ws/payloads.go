package ws

import "github.com/kkuzmin/gabble/internal/domain"

// Client frames carry an event name plus the event's fields. A missing
// required field is a caller error, reported to the originator only.

type envelope struct {
	Event string `json:"event"`
}

type createPayload struct {
	Room string `json:"room"`
}

type roomIDPayload struct {
	RoomID string `json:"roomId"`
}

type switchPayload struct {
	LeaveRoom string `json:"leaveRoom"`
	JoinRoom  string `json:"joinRoom"`
}

type messagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// response is the generic reply shape. Error marks failures; notices
// such as "room doesn't exist" are informational and keep Error false.
type response struct {
	Event   string `json:"event"`
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message"`
}

type joinResponse struct {
	Event    string          `json:"event"`
	Message  string          `json:"message"`
	RoomID   domain.RoomID   `json:"roomId"`
	RoomName domain.RoomName `json:"roomName"`
}

type chatMessage struct {
	Event   string `json:"event"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
	Room    string `json:"room"`
}

const (
	evtCreateResponse    = "create_response"
	evtJoinResponse      = "join_response"
	evtLeaveResponse     = "leave_response"
	evtTempLeaveResponse = "temp_leave_room_response"
	evtSwitchResponse    = "switch_room_response"
	evtDeleteResponse    = "delete_response"
	evtMessage           = "message"
	evtError             = "error_response"
)
