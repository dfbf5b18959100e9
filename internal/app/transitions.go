package app

import (
	"math/rand/v2"
	"slices"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/google/uuid"
)

type (
	RoomTransition[A any] = core.Transition[*domain.Room, A]
	RoomStep              = core.Step[*domain.Room]
)

// Rules parameterizes the example game.
type Rules struct {
	HandSize   int
	MinPlayers int
	MaxChatLen int
	// Cards returns a fresh, unshuffled copy of the prompt and answer sets.
	Cards   func() (prompts, answers []domain.Card)
	Shuffle domain.Shuffler
	// NewSlotKey returns an opaque key for one submission slot.
	NewSlotKey func() domain.SlotKey
}

func DefaultRules() Rules {
	return Rules{
		HandSize:   7,
		MinPlayers: 3,
		MaxChatLen: 500,
		Cards:      func() ([]domain.Card, []domain.Card) { return domain.NewCardSet(40, 200) },
		Shuffle: func(cards []domain.Card) {
			rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		},
		NewSlotKey: func() domain.SlotKey { return domain.SlotKey(uuid.NewString()) },
	}
}

type (
	MessageArgs struct {
		User domain.UserID
		Text string
	}
	SubmitArgs struct {
		User  domain.UserID
		Cards []string
	}
	PickArgs struct {
		User domain.UserID
		Slot domain.SlotKey
	}
)

// Transitions is the set of pure room transitions. They carry no hooks; owners
// extend them with their own persistence and broadcast behavior.
type Transitions struct {
	rules Rules

	Join        *RoomTransition[domain.UserID]
	Leave       *RoomTransition[domain.UserID]
	MarkOnline  *RoomTransition[domain.UserID]
	MarkOffline *RoomTransition[domain.UserID]

	// Gameplay transitions first mark the actor online.
	PostMessage *RoomTransition[MessageArgs]
	StartGame   *RoomTransition[domain.UserID]
	Submit      *RoomTransition[SubmitArgs]
	PickWinner  *RoomTransition[PickArgs]
	EndGame     *RoomTransition[domain.UserID]
}

func NewTransitions(rules Rules) *Transitions {
	d := DefaultRules()
	if rules.HandSize <= 0 {
		rules.HandSize = d.HandSize
	}
	if rules.MinPlayers <= 0 {
		rules.MinPlayers = d.MinPlayers
	}
	if rules.MaxChatLen <= 0 {
		rules.MaxChatLen = d.MaxChatLen
	}
	if rules.Cards == nil {
		rules.Cards = d.Cards
	}
	if rules.Shuffle == nil {
		rules.Shuffle = d.Shuffle
	}
	if rules.NewSlotKey == nil {
		rules.NewSlotKey = d.NewSlotKey
	}

	t := &Transitions{rules: rules}
	t.Join = core.New("join", t.join)
	t.Leave = core.New("leave", t.leave)
	t.MarkOnline = core.New("mark-online", t.markOnline)
	t.MarkOffline = core.New("mark-offline", t.markOffline)

	post := core.New("post-message", t.postMessage)
	t.PostMessage = core.Sequence("message", func(a MessageArgs) []RoomStep {
		return []RoomStep{core.Bind(t.MarkOnline, a.User), core.Bind(post, a)}
	})
	t.StartGame = gameplay(t, "start-game", t.startGame, func(u domain.UserID) domain.UserID { return u })
	t.Submit = gameplay(t, "submit", t.submit, func(a SubmitArgs) domain.UserID { return a.User })
	t.PickWinner = gameplay(t, "pick-winner", t.pickWinner, func(a PickArgs) domain.UserID { return a.User })
	t.EndGame = gameplay(t, "end-game", t.endGame, func(u domain.UserID) domain.UserID { return u })
	return t
}

// gameplay chains mark-online for the actor in front of fn.
func gameplay[A any](t *Transitions, name string, fn core.Func[*domain.Room, A], actor func(A) domain.UserID) *RoomTransition[A] {
	action := core.New(name, fn)
	return core.Sequence(name, func(a A) []RoomStep {
		return []RoomStep{core.Bind(t.MarkOnline, actor(a)), core.Bind(action, a)}
	})
}

func (t *Transitions) Rules() Rules { return t.rules }

// slotKeys returns n fresh shuffled keys that collide with no member id.
func (t *Transitions) slotKeys(n int, members []domain.UserID) []domain.SlotKey {
	keys := make([]domain.SlotKey, 0, n)
	for len(keys) < n {
		k := t.rules.NewSlotKey()
		if k == "" || domain.ContainsID(members, domain.UserID(k)) || slices.Contains(keys, k) {
			continue
		}
		keys = append(keys, k)
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	return keys
}
