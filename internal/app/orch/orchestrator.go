package orch

import (
	"context"
	"encoding/json"
	"slices"
	"sync/atomic"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/view"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const defaultFanOut = 8

// Orchestrator binds the pure room transitions to the registry (persistence)
// and to live connections (broadcast).
type Orchestrator struct {
	Registry *app.Registry
	Conns    *app.Directory
	Rules    *app.Transitions
	Grace    *app.Scheduler
	Policy   app.Policy
	FanOut   int

	join        *app.RoomTransition[domain.UserID]
	leave       *app.RoomTransition[domain.UserID]
	markOffline *app.RoomTransition[domain.UserID]
	message     *app.RoomTransition[app.MessageArgs]
	startGame   *app.RoomTransition[domain.UserID]
	submit      *app.RoomTransition[app.SubmitArgs]
	pickWinner  *app.RoomTransition[app.PickArgs]
	endGame     *app.RoomTransition[domain.UserID]
}

func New(reg *app.Registry, conns *app.Directory, rules *app.Transitions, grace *app.Scheduler, policy app.Policy) *Orchestrator {
	o := &Orchestrator{
		Registry: reg,
		Conns:    conns,
		Rules:    rules,
		Grace:    grace,
		Policy:   policy,
		FanOut:   defaultFanOut,
	}
	hooks := o.hooks()
	o.join = rules.Join.Extend(hooks...)
	o.leave = rules.Leave.Extend(hooks...)
	o.markOffline = rules.MarkOffline.Extend(hooks...)
	o.message = rules.PostMessage.Extend(hooks...)
	o.startGame = rules.StartGame.Extend(hooks...)
	o.submit = rules.Submit.Extend(hooks...)
	o.pickWinner = rules.PickWinner.Extend(hooks...)
	o.endGame = rules.EndGame.Extend(hooks...)
	return o
}

// hooks persist first, then broadcast whatever part of the room changed.
func (o *Orchestrator) hooks() []core.Option[*domain.Room] {
	return []core.Option[*domain.Room]{
		core.WithNormalizer[*domain.Room](o.current),
		core.OnPersist[*domain.Room](o.persist),
		core.OnBroadcast[*domain.Room](o.broadcastPlayers),
		core.OnBroadcast[*domain.Room](o.broadcastChat),
		core.OnBroadcast[*domain.Room](o.broadcastGame),
	}
}

type ctxKey int

const (
	originKey ctxKey = iota
	beforeKey
)

func originFrom(ctx context.Context) core.ConnID {
	cid, _ := ctx.Value(originKey).(core.ConnID)
	return cid
}

func beforeFrom(ctx context.Context) *domain.Room {
	room, _ := ctx.Value(beforeKey).(*domain.Room)
	return room
}

// run executes t on room on behalf of the origin connection, if any.
func run[A any](ctx context.Context, t *app.RoomTransition[A], origin core.ConnID, room *domain.Room, args A) (core.Result[*domain.Room], error) {
	ctx = context.WithValue(ctx, originKey, origin)
	ctx = context.WithValue(ctx, beforeKey, room)
	return t.Run(ctx, room, args)
}

// withRoom runs fn on the current room value with the room's lock held.
func (o *Orchestrator) withRoom(id domain.RoomID, fn func(room *domain.Room) error) error {
	return o.Registry.Serialize(id, func() error {
		room, err := o.Registry.Get(id)
		if err != nil {
			return err
		}
		return fn(room)
	})
}

// current swaps a held room value for the registered one.
func (o *Orchestrator) current(in core.Result[*domain.Room]) (core.Result[*domain.Room], error) {
	room, err := o.Registry.FetchOrValidate(in.State)
	if err != nil {
		return in, err
	}
	return core.Result[*domain.Room]{State: room, Changed: in.Changed}, nil
}

func (o *Orchestrator) persist(ctx context.Context, room *domain.Room) {
	if len(room.Members) > 0 {
		o.Registry.Replace(room)
		return
	}
	if o.Registry.Remove(room.ID) {
		o.teardown(ctx, room.ID)
	}
}

// teardown force-detaches whatever connections still point at a destroyed room.
func (o *Orchestrator) teardown(_ context.Context, id domain.RoomID) {
	for _, c := range o.Conns.EvictRoom(id) {
		o.send(id, c, RoomLeftEvent{Type: EventRoomClosed, RoomID: id})
	}
	log.Info().Str("module", "orch").Str("room", string(id)).Msg("room destroyed")
}

func (o *Orchestrator) broadcastPlayers(ctx context.Context, room *domain.Room) {
	if before := beforeFrom(ctx); before != nil &&
		slices.Equal(before.Members, room.Members) && slices.Equal(before.Offline, room.Offline) {
		return
	}
	if len(room.Members) == 0 {
		return
	}
	ev := PlayersUpdateEvent{Type: EventPlayersUpdate, RoomID: room.ID, Players: view.PlayersView(room)}
	o.fanOut(ctx, room.ID, originFrom(ctx), func(app.ConnSnap) any { return ev })
}

// broadcastChat echoes new messages to the whole room, sender included.
func (o *Orchestrator) broadcastChat(ctx context.Context, room *domain.Room) {
	seen := 0
	if before := beforeFrom(ctx); before != nil {
		seen = len(before.Chat)
	}
	for _, msg := range room.Chat[min(seen, len(room.Chat)):] {
		ev := MessageEvent{Type: EventMessage, RoomID: room.ID, Message: msg}
		o.fanOut(ctx, room.ID, "", func(app.ConnSnap) any { return ev })
	}
}

// broadcastGame sends each connection its own projection of the game.
func (o *Orchestrator) broadcastGame(ctx context.Context, room *domain.Room) {
	if before := beforeFrom(ctx); before != nil && before.Game == room.Game {
		return
	}
	if len(room.Members) == 0 {
		return
	}
	o.fanOut(ctx, room.ID, "", func(c app.ConnSnap) any {
		return GameUpdateEvent{Type: EventGameUpdate, RoomID: room.ID, Game: view.ProjectGame(room, view.For(room, c.User))}
	})
}

// fanOut renders and sends one event per connection attached to the room.
func (o *Orchestrator) fanOut(ctx context.Context, id domain.RoomID, exclude core.ConnID, render func(app.ConnSnap) any) {
	conns, err := o.Conns.ConnectionsIn(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(id)).Msg("fan-out: list connections")
		return
	}
	var sent atomic.Int32
	p := pool.New().WithMaxGoroutines(max(o.FanOut, 1))
	for _, c := range conns {
		if c.CID == exclude {
			continue
		}
		p.Go(func() {
			if o.send(id, c, render(c)) {
				sent.Add(1)
			}
		})
	}
	p.Wait()
	log.Debug().Str("module", "orch").Str("room", string(id)).Int("conns", len(conns)).Int32("sent", sent.Load()).Msg("fan-out")
}

func (o *Orchestrator) sendTo(id domain.RoomID, cid core.ConnID, v any) bool {
	c, ok := o.Conns.Lookup(cid)
	if !ok {
		return false
	}
	return o.send(id, c, v)
}

func (o *Orchestrator) send(id domain.RoomID, c app.ConnSnap, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("marshal event")
		return false
	}
	if err := c.Conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("cid", string(c.CID)).Str("room", string(id)).Msg("send failed")
		if o.Policy != nil && o.Policy.OnBackPressure(id, c) == app.CloseConnection {
			o.Conns.Cancel(c.CID)
			c.Conn.Close()
		}
		return false
	}
	return true
}

// Shutdown drops pending grace tasks.
func (o *Orchestrator) Shutdown() {
	o.Grace.Stop()
}
