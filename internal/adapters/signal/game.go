package signal

import (
	"context"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

func (ctl *SignalWSController) handleStartGame(ctx context.Context, cid core.ConnID, data []byte) error {
	id, err := decodeRoom("start_game", data)
	if err != nil {
		return err
	}
	return ctl.Orch.StartGame(ctx, cid, id)
}

func (ctl *SignalWSController) handleSubmit(ctx context.Context, cid core.ConnID, data []byte) error {
	var p struct {
		roomPayload
		Cards []string `json:"cards"`
	}
	if err := decode("submit", data, &p); err != nil {
		return err
	}
	if err := p.validate("submit"); err != nil {
		return err
	}
	return ctl.Orch.Submit(ctx, cid, p.RoomID, p.Cards)
}

func (ctl *SignalWSController) handlePickWinner(ctx context.Context, cid core.ConnID, data []byte) error {
	var p struct {
		roomPayload
		Slot domain.SlotKey `json:"slot"`
	}
	if err := decode("pick_winner", data, &p); err != nil {
		return err
	}
	if err := p.validate("pick_winner"); err != nil {
		return err
	}
	return ctl.Orch.PickWinner(ctx, cid, p.RoomID, p.Slot)
}

func (ctl *SignalWSController) handleEndGame(ctx context.Context, cid core.ConnID, data []byte) error {
	id, err := decodeRoom("end_game", data)
	if err != nil {
		return err
	}
	return ctl.Orch.EndGame(ctx, cid, id)
}
