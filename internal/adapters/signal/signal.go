package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/orch"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	defaultReadLimit  = 32768
	defaultPingPeriod = 54 * time.Second
	defaultSendBuffer = 64
	writeWait         = 5 * time.Second
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
	// Chat limits chat messages per user; nil disables limiting.
	Chat *RoomRateLimiter
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	opts Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = defaultPingPeriod
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &SignalWSController{Orch: o, opts: opts}
}

// pongWait must exceed the ping period so one missed pong is tolerated.
func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.opts.PingPeriod * 10 / 9
}

// WsSignalConn is the outbound side of one websocket. Sends never block:
// a full buffer is reported as ErrBackpressure.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either side
// closes it. The user id must already be resolved by the identity middleware.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	user, err := domain.ParseUserID(c.GetString(UserIDKey))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("ws without identity")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", string(user)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(cid, user, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}

// UserIDKey is the gin context key the identity middleware fills in.
const UserIDKey = "user_id"
