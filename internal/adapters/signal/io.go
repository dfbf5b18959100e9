package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cid core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Orch.Disconnect(ctx, cid)
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, cid, c, data)
		}
	}
}

type envelope struct {
	Type string          `json:"type"`
	ID   json.RawMessage `json:"id,omitempty"`
}

type ackError struct {
	Message string `json:"message"`
}

type ack struct {
	Type   string          `json:"type"`
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *ackError       `json:"error,omitempty"`
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cid core.ConnID, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		ctl.sendJSON(c, ack{Type: "ack", Error: &ackError{Message: "bad_payload"}})
		return
	}

	result, err := ctl.dispatch(ctx, cid, c, env.Type, data)
	resp := ack{Type: "ack", ID: env.ID, Result: result}
	if err != nil {
		resp.Error = &ackError{Message: ctl.errorMessage(cid, env.Type, err)}
	}
	ctl.sendJSON(c, resp)
}

// dispatch runs one request. A panicking handler is turned into an error.
func (ctl *SignalWSController) dispatch(ctx context.Context, cid core.ConnID, c *WsSignalConn, typ string, data []byte) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.InvariantViolation{Op: typ, Detail: fmt.Sprint("panic: ", r)}
		}
	}()

	switch typ {
	case "create_room":
		return ctl.handleCreate(ctx, cid)
	case "join_room":
		return nil, ctl.handleJoin(ctx, cid, data)
	case "leave_room":
		return nil, ctl.handleLeave(ctx, cid, data)
	case "message":
		return nil, ctl.handleMessage(ctx, cid, data)
	case "sync":
		return nil, ctl.handleSync(ctx, cid, data)
	case "start_game":
		return nil, ctl.handleStartGame(ctx, cid, data)
	case "submit":
		return nil, ctl.handleSubmit(ctx, cid, data)
	case "pick_winner":
		return nil, ctl.handlePickWinner(ctx, cid, data)
	case "end_game":
		return nil, ctl.handleEndGame(ctx, cid, data)
	case "ping":
		ctl.handlePing(c)
		return nil, nil
	case "whoami":
		return ctl.handleWhoAmI(cid)
	default:
		log.Warn().Str("module", "signal").Str("type", typ).Msg("unknown signal")
		return nil, &domain.ValidationError{Op: "dispatch", Reason: "unknown request type " + fmt.Sprintf("%q", typ)}
	}
}

// errorMessage hides internal failures from the client.
func (ctl *SignalWSController) errorMessage(cid core.ConnID, typ string, err error) string {
	switch {
	case domain.IsValidation(err), domain.IsNotFound(err):
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Str("type", typ).Msg("request rejected")
		return err.Error()
	default:
		log.Error().Err(err).Str("module", "signal").Str("cid", string(cid)).Str("type", typ).Msg("request failed")
		return "internal error"
	}
}

func decode(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.ValidationError{Op: op, Reason: "bad_payload"}
	}
	return nil
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
