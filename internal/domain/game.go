package domain

import (
	"maps"
	"slices"
)

type Category string

const (
	CategoryPrompt Category = "prompt"
	CategoryAnswer Category = "answer"
)

var Categories = []Category{CategoryPrompt, CategoryAnswer}

// Card is a single prompt or answer card. Pick is how many answers a prompt needs.
type Card struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Pick     int      `json:"pick,omitempty"`
}

// Shuffler reorders cards in place.
type Shuffler func([]Card)

// DeckPair is the draw and discard pile of one category.
type DeckPair struct {
	Draw    []Card
	Discard []Card
}

// Take draws n cards from the top of the draw pile. An exhausted draw pile is
// refilled from the shuffled discard pile; when both together hold fewer than
// n cards nothing is drawn.
func (d DeckPair) Take(n int, shuffle Shuffler) (DeckPair, []Card, error) {
	if n <= 0 {
		return d, nil, nil
	}
	if n > len(d.Draw)+len(d.Discard) {
		return d, nil, &ValidationError{Op: "draw", Reason: "deck exhausted"}
	}
	draw, discard := d.Draw, d.Discard
	out := make([]Card, 0, n)
	for len(out) < n {
		if len(draw) == 0 {
			draw = slices.Clone(discard)
			if shuffle != nil {
				shuffle(draw)
			}
			discard = nil
		}
		k := min(n-len(out), len(draw))
		out = append(out, draw[:k]...)
		draw = draw[k:]
	}
	return DeckPair{Draw: draw, Discard: discard}, out, nil
}

// Discarded returns d with cards added to the discard pile.
func (d DeckPair) Discarded(cards ...Card) DeckPair {
	if len(cards) == 0 {
		return d
	}
	return DeckPair{Draw: d.Draw, Discard: slices.Concat(d.Discard, cards)}
}

func (d DeckPair) Size() int { return len(d.Draw) + len(d.Discard) }

// Win is a resolved prompt together with the answers that won it.
type Win struct {
	Prompt  Card   `json:"prompt"`
	Answers []Card `json:"answers"`
}

// PlayerState is private to one player.
type PlayerState struct {
	Hand []Card
	Wins []Win
}

func (p PlayerState) HandIndex(id string) int {
	return slices.IndexFunc(p.Hand, func(c Card) bool { return c.ID == id })
}

type SlotKey string

// GameRound is one judging cycle. Participants and the slot assignment are
// fixed when the round starts; submissions only grow.
type GameRound struct {
	Judge        UserID
	Prompt       Card
	Participants []UserID

	slots       map[UserID]SlotKey
	submissions map[SlotKey][]Card
}

// NewGameRound pairs participants with keys by position. keys must already be
// shuffled and at least as long as participants.
func NewGameRound(judge UserID, prompt Card, participants []UserID, keys []SlotKey) *GameRound {
	slots := make(map[UserID]SlotKey, len(participants))
	for i, u := range participants {
		slots[u] = keys[i]
	}
	return &GameRound{
		Judge:        judge,
		Prompt:       prompt,
		Participants: slices.Clone(participants),
		slots:        slots,
		submissions:  map[SlotKey][]Card{},
	}
}

func (r *GameRound) IsParticipant(u UserID) bool {
	_, ok := r.slots[u]
	return ok
}

func (r *GameRound) SubmissionOf(u UserID) ([]Card, bool) {
	key, ok := r.slots[u]
	if !ok {
		return nil, false
	}
	cards, ok := r.submissions[key]
	return cards, ok
}

// WithSubmission returns a copy of r holding u's cards.
func (r *GameRound) WithSubmission(u UserID, cards []Card) *GameRound {
	c := *r
	c.submissions = maps.Clone(r.submissions)
	c.submissions[r.slots[u]] = slices.Clone(cards)
	return &c
}

// Pending lists participants, in round order, that are still active and have
// not submitted.
func (r *GameRound) Pending(active func(UserID) bool) []UserID {
	var out []UserID
	for _, u := range r.Participants {
		if _, done := r.submissions[r.slots[u]]; !done && active(u) {
			out = append(out, u)
		}
	}
	return out
}

// Submissions returns the anonymous submission bag.
func (r *GameRound) Submissions() map[SlotKey][]Card {
	return maps.Clone(r.submissions)
}

// SubmittedKeys returns submitted slot keys in a stable order.
func (r *GameRound) SubmittedKeys() []SlotKey {
	keys := slices.Collect(maps.Keys(r.submissions))
	slices.Sort(keys)
	return keys
}

// Owner resolves a slot key back to the participant. Only transitions use it.
func (r *GameRound) Owner(key SlotKey) (UserID, bool) {
	for u, k := range r.slots {
		if k == key {
			return u, true
		}
	}
	return "", false
}

// Cards held by the round: the prompt and every submission.
func (r *GameRound) Cards(c Category) int {
	if c == CategoryPrompt {
		return 1
	}
	n := 0
	for _, cards := range r.submissions {
		n += len(cards)
	}
	return n
}

// GameState is the running game of a room.
type GameState struct {
	HandSize int
	Decks    map[Category]DeckPair
	Players  map[UserID]PlayerState
	Round    *GameRound
}

// Clone copies the maps so entries can be replaced on the copy.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Decks = maps.Clone(g.Decks)
	c.Players = maps.Clone(g.Players)
	return &c
}

func (g *GameState) HasPlayer(u UserID) bool {
	_, ok := g.Players[u]
	return ok
}

// CardCount totals every card of category c wherever it currently is. It stays
// constant for the lifetime of a game.
func (g *GameState) CardCount(c Category) int {
	n := g.Decks[c].Size()
	for _, p := range g.Players {
		for _, card := range p.Hand {
			if card.Category == c {
				n++
			}
		}
		for _, w := range p.Wins {
			if c == CategoryPrompt {
				n++
			} else {
				n += len(w.Answers)
			}
		}
	}
	if g.Round != nil {
		n += g.Round.Cards(c)
	}
	return n
}
