package orch

import (
	"context"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

func (o *Orchestrator) StartGame(ctx context.Context, cid core.ConnID, id domain.RoomID) error {
	user, err := o.attached("start_game", cid, id)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		_, err := run(ctx, o.startGame, cid, room, user)
		return err
	})
}

// Submit plays cards from the caller's hand into the current round.
func (o *Orchestrator) Submit(ctx context.Context, cid core.ConnID, id domain.RoomID, cards []string) error {
	user, err := o.attached("submit", cid, id)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		_, err := run(ctx, o.submit, cid, room, app.SubmitArgs{User: user, Cards: cards})
		return err
	})
}

// PickWinner is the judge choosing one anonymous submission slot.
func (o *Orchestrator) PickWinner(ctx context.Context, cid core.ConnID, id domain.RoomID, slot domain.SlotKey) error {
	user, err := o.attached("pick_winner", cid, id)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		_, err := run(ctx, o.pickWinner, cid, room, app.PickArgs{User: user, Slot: slot})
		return err
	})
}

func (o *Orchestrator) EndGame(ctx context.Context, cid core.ConnID, id domain.RoomID) error {
	user, err := o.attached("end_game", cid, id)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		_, err := run(ctx, o.endGame, cid, room, user)
		return err
	})
}

// Rooms lists live rooms for the HTTP API.
func (o *Orchestrator) Rooms() []app.RoomSummary {
	return o.Registry.List()
}
