package view

import (
	"maps"
	"slices"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

// Merge applies a partial view on top of an existing one:
//   - a defined value replaces an undefined (zero) one,
//   - slices merge element by element,
//   - a revealed hand always beats a count-only hand,
//   - two different defined scalars are unexpected; the newer one wins and the
//     conflict is logged.
func Merge(old, partial RoomView) RoomView {
	return RoomView{
		ID:      mergeScalar("id", old.ID, partial.ID),
		Members: mergeSlice(old.Members, partial.Members, mergeMember),
		Chat:    mergeSlice(old.Chat, partial.Chat, mergeChat),
		Game:    mergeGame(old.Game, partial.Game),
	}
}

func mergeScalar[T comparable](field string, old, newer T) T {
	var zero T
	switch {
	case newer == zero:
		return old
	case old == zero, old == newer:
		return newer
	}
	log.Warn().Str("module", "app.view").Str("field", field).Interface("old", old).Interface("new", newer).Msg("conflicting values in partial merge, taking newer")
	return newer
}

func mergeSlice[T any](old, newer []T, merge func(a, b T) T) []T {
	if newer == nil {
		return old
	}
	if old == nil {
		return newer
	}
	out := make([]T, max(len(old), len(newer)))
	for i := range out {
		switch {
		case i >= len(newer):
			out[i] = old[i]
		case i >= len(old):
			out[i] = newer[i]
		default:
			out[i] = merge(old[i], newer[i])
		}
	}
	return out
}

func mergeMember(a, b MemberView) MemberView {
	if b.ID == "" {
		return a
	}
	// Liveness is expected to flip between updates.
	return MemberView{ID: mergeScalar("member.id", a.ID, b.ID), Online: b.Online}
}

func mergeChat(a, b domain.ChatMessage) domain.ChatMessage {
	if b == (domain.ChatMessage{}) {
		return a
	}
	return domain.ChatMessage{
		SenderID: mergeScalar("chat.sender", a.SenderID, b.SenderID),
		Text:     mergeScalar("chat.text", a.Text, b.Text),
	}
}

func mergeGame(old, newer *GameView) *GameView {
	switch {
	case newer == nil:
		return old
	case old == nil:
		return newer
	}
	out := &GameView{
		Decks:   maps.Clone(old.Decks),
		Players: mergeSlice(old.Players, newer.Players, mergePlayer),
		Round:   mergeRound(old.Round, newer.Round),
	}
	for c, p := range newer.Decks {
		if out.Decks == nil {
			out.Decks = make(map[domain.Category]PileView)
		}
		// Pile sizes are counts, not identities; the newer count wins.
		out.Decks[c] = p
	}
	return out
}

func mergePlayer(a, b PlayerView) PlayerView {
	if b.ID == "" && !b.Hand.Revealed && b.Hand.Count == 0 && b.Wins == nil {
		return a
	}
	return PlayerView{
		ID:   mergeScalar("player.id", a.ID, b.ID),
		Hand: mergeHand(a.Hand, b.Hand),
		Wins: mergeSlice(a.Wins, b.Wins, func(x, y domain.Win) domain.Win {
			if y.Prompt.ID == "" {
				return x
			}
			return y
		}),
	}
}

// mergeHand prefers concrete cards over a count placeholder in either order.
func mergeHand(a, b HandView) HandView {
	switch {
	case b.Revealed && !a.Revealed:
		return b
	case a.Revealed && !b.Revealed:
		return a
	case !b.Revealed:
		if b.Count == 0 {
			return a
		}
		return b
	}
	if !slices.Equal(a.Cards, b.Cards) {
		log.Warn().Str("module", "app.view").Str("field", "hand").Msg("conflicting revealed hands in partial merge, taking newer")
	}
	return b
}

func mergeRound(old, newer *RoundView) *RoundView {
	switch {
	case newer == nil:
		return old
	case old == nil:
		return newer
	}
	out := &RoundView{
		Judge:       mergeScalar("round.judge", old.Judge, newer.Judge),
		Prompt:      old.Prompt,
		Waiting:     mergeSlice(old.Waiting, newer.Waiting, func(a, b domain.UserID) domain.UserID { return mergeScalar("round.waiting", a, b) }),
		Submissions: maps.Clone(old.Submissions),
	}
	if newer.Prompt != nil {
		p := mergeScalar("round.prompt", derefCard(old.Prompt), *newer.Prompt)
		out.Prompt = &p
	}
	for k, cards := range newer.Submissions {
		if out.Submissions == nil {
			out.Submissions = make(map[domain.SlotKey][]domain.Card)
		}
		out.Submissions[k] = cards
	}
	return out
}

func derefCard(c *domain.Card) domain.Card {
	if c == nil {
		return domain.Card{}
	}
	return *c
}
