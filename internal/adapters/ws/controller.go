package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/app"
)

const writeDeadline = 5 * time.Second

// Options tunes the per-connection transport.
type Options struct {
	ReadLimit  int64
	SendBuffer int
	// Message rate limiting, per identity.
	MsgRateLimit int
	MsgRateEvery time.Duration
}

type handlerFunc func(ctx context.Context, conn app.ConnID, identity string, data []byte)

// Controller owns the websocket side of the system. Handlers are
// registered by event name in an explicit table built at construction;
// there is no dispatch by reflection or naming convention.
type Controller struct {
	coord    *app.Coordinator
	reg      *app.Registry
	disp     *app.Dispatcher
	limiter  *MessageRateLimiter
	opts     Options
	handlers map[string]handlerFunc
}

func NewController(coord *app.Coordinator, reg *app.Registry, disp *app.Dispatcher, opts Options) *Controller {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	ctl := &Controller{
		coord:   coord,
		reg:     reg,
		disp:    disp,
		limiter: NewMessageRateLimiter(opts.MsgRateLimit, opts.MsgRateEvery),
		opts:    opts,
	}
	ctl.handlers = map[string]handlerFunc{
		"create":     ctl.handleCreate,
		"join":       ctl.handleJoin,
		"leave":      ctl.handleLeave,
		"temp_leave": ctl.handleTempLeave,
		"switch":     ctl.handleSwitch,
		"delete":     ctl.handleDelete,
		"message":    ctl.handleMessage,
	}
	return ctl
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades an authenticated request and binds the connection
// to the identity resolved by the auth middleware.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	identity := c.GetString("identity")
	if identity == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized"})
		return
	}

	wsock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		wsock.SetReadLimit(ctl.opts.ReadLimit)
	}

	id := app.ConnID(uuid.NewString())
	conn := newWsConn(wsock, ctl.opts.SendBuffer)
	ctl.reg.Bind(id, identity, conn)
	log.Info().Str("module", "ws").Str("conn", string(id)).Str("identity", identity).Msg("connection open")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer func() {
			cancel()
			ctl.reg.UnbindAll(id)
			conn.Close()
			log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connection closed")
		}()
		ctl.readPump(ctx, id, identity, conn)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id app.ConnID, identity string, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.dispatch(ctx, id, identity, data)
		}
	}
}

// dispatch routes one inbound frame through the handler table.
func (ctl *Controller) dispatch(ctx context.Context, id app.ConnID, identity string, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		ctl.notifyError(id, evtError, "Bad Request: malformed frame.")
		return
	}
	handler, ok := ctl.handlers[env.Event]
	if !ok {
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
		ctl.notifyError(id, evtError, "Unknown event.")
		return
	}
	handler(ctx, id, identity, data)
}

// notify sends an informational notice to the originating connection only.
func (ctl *Controller) notify(id app.ConnID, event, msg string) {
	ctl.disp.SendTo(id, response{Event: event, Message: msg})
}

// notifyError sends a failure notice to the originating connection only.
func (ctl *Controller) notifyError(id app.ConnID, event, msg string) {
	ctl.disp.SendTo(id, response{Event: event, Error: true, Message: msg})
}

// reply renders a non-OK outcome as an originator-only notice. NotFound
// and AlreadyExists are informational; the rest are failures.
func (ctl *Controller) reply(id app.ConnID, event string, out app.Outcome) {
	switch out.Kind {
	case app.KindNotFound, app.KindAlreadyExists:
		ctl.notify(id, event, out.Message)
	default:
		ctl.notifyError(id, event, out.Message)
	}
}
