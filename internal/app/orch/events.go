package orch

import (
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/view"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

// Outbound event payloads. Type is the envelope discriminator.

type RoomInfoEvent struct {
	Type string        `json:"type"`
	View view.RoomView `json:"view"`
}

type PlayersUpdateEvent struct {
	Type    string            `json:"type"`
	RoomID  domain.RoomID     `json:"roomId"`
	Players []view.MemberView `json:"players"`
}

type MessageEvent struct {
	Type    string             `json:"type"`
	RoomID  domain.RoomID      `json:"roomId"`
	Message domain.ChatMessage `json:"message"`
}

// GameUpdateEvent carries a null game once the game has ended.
type GameUpdateEvent struct {
	Type   string         `json:"type"`
	RoomID domain.RoomID  `json:"roomId"`
	Game   *view.GameView `json:"game"`
}

type RoomLeftEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

const (
	EventRoomInfo      = "room_info"
	EventPlayersUpdate = "players_update"
	EventMessage       = "message"
	EventGameUpdate    = "game_update"
	EventLeftRoom      = "left_room"
	EventRoomClosed    = "room_closed"
)
