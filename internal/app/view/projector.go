// Package view computes what each audience is allowed to see of a room.
//
// Project is pure: it reads authoritative state and builds a fresh value, so
// it is safe to call from many goroutines on a published room.
package view

import (
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

type audienceKind int

const (
	kindPublic audienceKind = iota
	kindOwner
	kindJudge
)

// Audience is a closed tag: Public, Owner(id) or Judge(id).
type Audience struct {
	kind audienceKind
	user domain.UserID
}

func Public() Audience                  { return Audience{kind: kindPublic} }
func Owner(user domain.UserID) Audience { return Audience{kind: kindOwner, user: user} }
func Judge(user domain.UserID) Audience { return Audience{kind: kindJudge, user: user} }

// For picks the audience a member's connection gets.
func For(room *domain.Room, user domain.UserID) Audience {
	if !room.IsMember(user) {
		return Public()
	}
	if room.Game != nil && room.Game.Round != nil && room.Game.Round.Judge == user {
		return Judge(user)
	}
	return Owner(user)
}

func (a Audience) String() string {
	switch a.kind {
	case kindOwner:
		return "owner(" + string(a.user) + ")"
	case kindJudge:
		return "judge(" + string(a.user) + ")"
	}
	return "public"
}

type MemberView struct {
	ID     domain.UserID `json:"id"`
	Online bool          `json:"online"`
}

// HandView is either the real cards (Revealed) or only their count.
type HandView struct {
	Revealed bool          `json:"revealed"`
	Cards    []domain.Card `json:"cards,omitempty"`
	Count    int           `json:"count"`
}

type PlayerView struct {
	ID   domain.UserID `json:"id"`
	Hand HandView      `json:"hand"`
	Wins []domain.Win  `json:"wins,omitempty"`
}

type PileView struct {
	Draw    int `json:"draw"`
	Discard int `json:"discard"`
}

// RoundView never pairs a participant with a submission. Waiting is set while
// anyone still has to submit, Submissions only once everyone has.
type RoundView struct {
	Judge       domain.UserID                    `json:"judge"`
	Prompt      *domain.Card                     `json:"prompt,omitempty"`
	Waiting     []domain.UserID                  `json:"waiting,omitempty"`
	Submissions map[domain.SlotKey][]domain.Card `json:"submissions,omitempty"`
}

type GameView struct {
	Decks   map[domain.Category]PileView `json:"decks,omitempty"`
	Players []PlayerView                 `json:"players,omitempty"`
	Round   *RoundView                   `json:"round,omitempty"`
}

type RoomView struct {
	ID      domain.RoomID        `json:"id,omitempty"`
	Members []MemberView         `json:"members,omitempty"`
	Chat    []domain.ChatMessage `json:"chat,omitempty"`
	Game    *GameView            `json:"game,omitempty"`
}

// Project returns the room as seen by aud.
func Project(room *domain.Room, aud Audience) RoomView {
	v := RoomView{
		ID:      room.ID,
		Members: PlayersView(room),
		Chat:    append([]domain.ChatMessage(nil), room.Chat...),
	}
	if room.Game != nil {
		v.Game = ProjectGame(room, aud)
	}
	return v
}

// ProjectGame is the game part of Project; nil when no game runs.
func ProjectGame(room *domain.Room, aud Audience) *GameView {
	if room.Game == nil {
		return nil
	}
	public := publicGame(room)
	if aud.kind == kindPublic {
		return public
	}
	ps, ok := room.Game.Players[aud.user]
	if !ok {
		return public
	}
	// Reveal the viewer's own hand by merging a partial over the public view.
	partial := &GameView{Players: make([]PlayerView, len(public.Players))}
	for i, p := range public.Players {
		if p.ID == aud.user {
			partial.Players[i] = PlayerView{
				ID:   aud.user,
				Hand: HandView{Revealed: true, Cards: append([]domain.Card{}, ps.Hand...), Count: len(ps.Hand)},
			}
		}
	}
	return mergeGame(public, partial)
}

// PlayersView is the member list with liveness, in member order.
func PlayersView(room *domain.Room) []MemberView {
	out := make([]MemberView, 0, len(room.Members))
	for _, u := range room.Members {
		out = append(out, MemberView{ID: u, Online: !room.IsOffline(u)})
	}
	return out
}

func publicGame(room *domain.Room) *GameView {
	g := room.Game
	v := &GameView{Decks: make(map[domain.Category]PileView, len(g.Decks))}
	for c, d := range g.Decks {
		v.Decks[c] = PileView{Draw: len(d.Draw), Discard: len(d.Discard)}
	}
	for _, u := range room.Members {
		ps, ok := g.Players[u]
		if !ok {
			continue
		}
		v.Players = append(v.Players, PlayerView{
			ID:   u,
			Hand: HandView{Count: len(ps.Hand)},
			Wins: append([]domain.Win(nil), ps.Wins...),
		})
	}
	if g.Round != nil {
		v.Round = projectRound(g)
	}
	return v
}

func projectRound(g *domain.GameState) *RoundView {
	r := g.Round
	prompt := r.Prompt
	rv := &RoundView{Judge: r.Judge, Prompt: &prompt}
	if waiting := r.Pending(g.HasPlayer); len(waiting) > 0 {
		rv.Waiting = waiting
		return rv
	}
	rv.Submissions = r.Submissions()
	return rv
}
