package signal

import (
	"context"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/orch"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

type roomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (p roomPayload) validate(op string) error {
	if p.RoomID == "" {
		return &domain.ValidationError{Op: op, Reason: "roomId is required"}
	}
	return nil
}

func decodeRoom(op string, data []byte) (domain.RoomID, error) {
	var p roomPayload
	if err := decode(op, data, &p); err != nil {
		return "", err
	}
	return p.RoomID, p.validate(op)
}

type createResult struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (ctl *SignalWSController) handleCreate(ctx context.Context, cid core.ConnID) (any, error) {
	id, err := ctl.Orch.CreateRoom(ctx, cid)
	if err != nil {
		return nil, err
	}
	return createResult{RoomID: id}, nil
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, cid core.ConnID, data []byte) error {
	id, err := decodeRoom("join_room", data)
	if err != nil {
		return err
	}
	return ctl.Orch.Join(ctx, cid, id)
}

// handleLeave leaves the room for every connection of the user; the socket stays open.
func (ctl *SignalWSController) handleLeave(ctx context.Context, cid core.ConnID, data []byte) error {
	id, err := decodeRoom("leave_room", data)
	if err != nil {
		return err
	}
	return ctl.Orch.Leave(ctx, cid, id)
}

func (ctl *SignalWSController) handleSync(ctx context.Context, cid core.ConnID, data []byte) error {
	id, err := decodeRoom("sync", data)
	if err != nil {
		return err
	}
	return ctl.Orch.Sync(ctx, cid, id)
}

func (ctl *SignalWSController) handleMessage(ctx context.Context, cid core.ConnID, data []byte) error {
	var p struct {
		roomPayload
		UserID domain.UserID `json:"userId"`
		Text   string        `json:"text"`
	}
	if err := decode("message", data, &p); err != nil {
		return err
	}
	if err := p.validate("message"); err != nil {
		return err
	}
	if ctl.opts.Chat != nil {
		if c, ok := ctl.Orch.Conns.Lookup(cid); ok && !ctl.opts.Chat.Allow(c.User) {
			return &domain.ValidationError{Op: "message", Reason: "rate limited"}
		}
	}
	return ctl.Orch.Message(ctx, cid, orch.MessageRequest{RoomID: p.RoomID, UserID: p.UserID, Text: p.Text})
}
