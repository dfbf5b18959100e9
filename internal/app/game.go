package app

import (
	"fmt"
	"slices"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

func (t *Transitions) startGame(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if host, _ := room.Host(); host != user {
		return room, false, &domain.ValidationError{Op: "start-game", Reason: "only the host can start the game"}
	}
	if room.Game != nil {
		return room, false, &domain.ValidationError{Op: "start-game", Reason: "game already running"}
	}
	if len(room.Members) < t.rules.MinPlayers {
		return room, false, &domain.ValidationError{Op: "start-game", Reason: fmt.Sprintf("need at least %d players", t.rules.MinPlayers)}
	}

	prompts, answers := t.rules.Cards()
	t.rules.Shuffle(prompts)
	t.rules.Shuffle(answers)
	g := &domain.GameState{
		HandSize: t.rules.HandSize,
		Decks: map[domain.Category]domain.DeckPair{
			domain.CategoryPrompt: {Draw: prompts},
			domain.CategoryAnswer: {Draw: answers},
		},
		Players: make(map[domain.UserID]domain.PlayerState, len(room.Members)),
	}
	for _, u := range room.Members {
		g.Players[u] = domain.PlayerState{}
	}
	if err := t.refill(g, room.Members); err != nil {
		return room, false, err
	}
	if err := t.openRound(g, room.Members, room.Members[0]); err != nil {
		return room, false, err
	}

	next := room.Clone()
	next.Game = g
	log.Info().Str("module", "app.game").Str("room", string(room.ID)).Int("players", len(room.Members)).Msg("game started")
	return next, true, nil
}

func (t *Transitions) submit(room *domain.Room, a SubmitArgs) (*domain.Room, bool, error) {
	g := room.Game
	if g == nil || g.Round == nil {
		return room, false, &domain.ValidationError{Op: "submit", Reason: "no game running"}
	}
	r := g.Round
	switch {
	case a.User == r.Judge:
		return room, false, &domain.ValidationError{Op: "submit", Reason: "the judge does not submit"}
	case !r.IsParticipant(a.User):
		return room, false, &domain.ValidationError{Op: "submit", Reason: "not playing this round"}
	}
	if prev, done := r.SubmissionOf(a.User); done {
		if slices.Equal(cardIDs(prev), a.Cards) {
			return room, false, nil
		}
		return room, false, &domain.ValidationError{Op: "submit", Reason: "already submitted this round"}
	}
	if len(a.Cards) != r.Prompt.Pick {
		return room, false, &domain.ValidationError{Op: "submit", Reason: fmt.Sprintf("prompt needs %d cards", r.Prompt.Pick)}
	}

	ps := g.Players[a.User]
	hand := slices.Clone(ps.Hand)
	picked := make([]domain.Card, 0, len(a.Cards))
	for _, id := range a.Cards {
		i := slices.IndexFunc(hand, func(c domain.Card) bool { return c.ID == id })
		if i < 0 {
			return room, false, &domain.ValidationError{Op: "submit", Reason: fmt.Sprintf("card %q not in hand", id)}
		}
		picked = append(picked, hand[i])
		hand = slices.Delete(hand, i, i+1)
	}

	ng := g.Clone()
	ng.Players[a.User] = domain.PlayerState{Hand: hand, Wins: ps.Wins}
	ng.Round = r.WithSubmission(a.User, picked)
	next := room.Clone()
	next.Game = ng
	return next, true, nil
}

func (t *Transitions) pickWinner(room *domain.Room, a PickArgs) (*domain.Room, bool, error) {
	g := room.Game
	if g == nil || g.Round == nil {
		return room, false, &domain.ValidationError{Op: "pick-winner", Reason: "no game running"}
	}
	r := g.Round
	if a.User != r.Judge {
		return room, false, &domain.ValidationError{Op: "pick-winner", Reason: "only the judge picks"}
	}
	if pending := r.Pending(g.HasPlayer); len(pending) > 0 {
		return room, false, &domain.ValidationError{Op: "pick-winner", Reason: "submissions still pending"}
	}
	winner, ok := r.Owner(a.Slot)
	if _, submitted := r.Submissions()[a.Slot]; !ok || !submitted {
		return room, false, &domain.ValidationError{Op: "pick-winner", Reason: "unknown slot"}
	}

	ng := g.Clone()
	t.closeRound(ng, winner)
	if err := t.refill(ng, room.Members); err != nil {
		return room, false, err
	}
	next := room.Clone()
	next.Game = ng
	if ng.Decks[domain.CategoryPrompt].Size() == 0 {
		// Every prompt has been won; the final standings stay until the host ends the game.
		log.Info().Str("module", "app.game").Str("room", string(room.ID)).Msg("game over: prompts exhausted")
		return next, true, nil
	}
	judge, _ := domain.NextAfter(room.Members, r.Judge)
	if err := t.openRound(ng, room.Members, judge); err != nil {
		return room, false, err
	}
	log.Info().Str("module", "app.game").Str("room", string(room.ID)).Str("judge", string(judge)).Msg("round resolved")
	return next, true, nil
}

func (t *Transitions) endGame(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if host, _ := room.Host(); host != user {
		return room, false, &domain.ValidationError{Op: "end-game", Reason: "only the host can end the game"}
	}
	if room.Game == nil {
		return room, false, nil
	}
	next := room.Clone()
	next.Game = nil
	log.Info().Str("module", "app.game").Str("room", string(room.ID)).Msg("game ended")
	return next, true, nil
}

// dealIn gives a player who joins a running game a full hand. They take part
// from the next round on.
func (t *Transitions) dealIn(g *domain.GameState, user domain.UserID) (*domain.GameState, error) {
	ng := g.Clone()
	ng.Players[user] = domain.PlayerState{}
	if err := t.refill(ng, []domain.UserID{user}); err != nil {
		return nil, err
	}
	return ng, nil
}

// removePlayer returns a departing player's cards to the discard piles and
// keeps the round playable. A nil game means it ended for lack of players.
func (t *Transitions) removePlayer(g *domain.GameState, before, after []domain.UserID, user domain.UserID) (*domain.GameState, error) {
	ng := g.Clone()
	if ps, ok := ng.Players[user]; ok {
		delete(ng.Players, user)
		discard(ng, domain.CategoryAnswer, ps.Hand...)
		for _, w := range ps.Wins {
			discard(ng, domain.CategoryPrompt, w.Prompt)
			discard(ng, domain.CategoryAnswer, w.Answers...)
		}
	}
	if len(ng.Players) < t.rules.MinPlayers {
		log.Info().Str("module", "app.game").Str("user", string(user)).Msg("game ended: not enough players")
		return nil, nil
	}

	r := ng.Round
	if r == nil {
		return ng, nil
	}
	var judge domain.UserID
	switch {
	case r.Judge == user:
		judge, _ = domain.NextAfter(before, user)
	case len(r.Pending(ng.HasPlayer)) == 0 && len(r.SubmittedKeys()) == 0:
		// Nobody left who could submit.
		judge = r.Judge
	default:
		return ng, nil
	}
	t.cancelRound(ng)
	if err := t.refill(ng, after); err != nil {
		return nil, err
	}
	if err := t.openRound(ng, after, judge); err != nil {
		return nil, err
	}
	return ng, nil
}

// openRound draws a prompt and assigns anonymous slots. g must be a private copy.
func (t *Transitions) openRound(g *domain.GameState, members []domain.UserID, judge domain.UserID) error {
	deck, drawn, err := g.Decks[domain.CategoryPrompt].Take(1, t.rules.Shuffle)
	if err != nil {
		return err
	}
	g.Decks[domain.CategoryPrompt] = deck
	var participants []domain.UserID
	for _, u := range members {
		if u != judge && g.HasPlayer(u) {
			participants = append(participants, u)
		}
	}
	g.Round = domain.NewGameRound(judge, drawn[0], participants, t.slotKeys(len(participants), members))
	return nil
}

// closeRound credits the winning combination and discards the rest. A winner
// who already left is not credited.
func (t *Transitions) closeRound(g *domain.GameState, winner domain.UserID) {
	r := g.Round
	g.Round = nil
	subs := r.Submissions()
	for _, key := range r.SubmittedKeys() {
		owner, _ := r.Owner(key)
		if owner == winner {
			continue
		}
		discard(g, domain.CategoryAnswer, subs[key]...)
	}
	won, _ := r.SubmissionOf(winner)
	ps, ok := g.Players[winner]
	if !ok {
		discard(g, domain.CategoryPrompt, r.Prompt)
		discard(g, domain.CategoryAnswer, won...)
		return
	}
	g.Players[winner] = domain.PlayerState{
		Hand: ps.Hand,
		Wins: slices.Concat(ps.Wins, []domain.Win{{Prompt: r.Prompt, Answers: won}}),
	}
}

func (t *Transitions) cancelRound(g *domain.GameState) {
	r := g.Round
	g.Round = nil
	discard(g, domain.CategoryPrompt, r.Prompt)
	subs := r.Submissions()
	for _, key := range r.SubmittedKeys() {
		discard(g, domain.CategoryAnswer, subs[key]...)
	}
}

// refill tops every listed player's hand up to the hand size.
func (t *Transitions) refill(g *domain.GameState, members []domain.UserID) error {
	for _, u := range members {
		ps, ok := g.Players[u]
		if !ok {
			continue
		}
		need := g.HandSize - len(ps.Hand)
		if need <= 0 {
			continue
		}
		deck, drawn, err := g.Decks[domain.CategoryAnswer].Take(need, t.rules.Shuffle)
		if err != nil {
			return err
		}
		g.Decks[domain.CategoryAnswer] = deck
		g.Players[u] = domain.PlayerState{Hand: slices.Concat(ps.Hand, drawn), Wins: ps.Wins}
	}
	return nil
}

func discard(g *domain.GameState, c domain.Category, cards ...domain.Card) {
	g.Decks[c] = g.Decks[c].Discarded(cards...)
}

func cardIDs(cards []domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}
