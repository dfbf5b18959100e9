package app

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	User   domain.UserID
	Conn   core.SignalConnection
	Rooms  map[domain.RoomID]struct{}
	Cancel context.CancelFunc
}

// ConnSnap is a read-only copy of one live connection.
type ConnSnap struct {
	CID  core.ConnID
	User domain.UserID
	Conn core.SignalConnection
}

// Directory tracks live connections: who they belong to and which rooms they
// are attached to. It never touches room state.
type Directory struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewDirectory() *Directory {
	return &Directory{conns: make(map[core.ConnID]*connEntry)}
}

func (d *Directory) Bind(cid core.ConnID, user domain.UserID, conn core.SignalConnection, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[cid] = &connEntry{
		User:   user,
		Conn:   conn,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.directory").Str("cid", string(cid)).Str("user", string(user)).Msg("bound connection")
}

// Unbind forgets the connection and reports the rooms it was attached to.
func (d *Directory) Unbind(cid core.ConnID) (domain.UserID, []domain.RoomID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.conns[cid]
	if !ok {
		return "", nil, false
	}
	delete(d.conns, cid)
	rooms := slices.Sorted(maps.Keys(e.Rooms))
	log.Info().Str("module", "app.directory").Str("cid", string(cid)).Str("user", string(e.User)).Int("rooms", len(rooms)).Msg("unbound connection")
	return e.User, rooms, true
}

func (d *Directory) Lookup(cid core.ConnID) (ConnSnap, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[cid]
	if !ok {
		return ConnSnap{}, false
	}
	return ConnSnap{CID: cid, User: e.User, Conn: e.Conn}, true
}

func (d *Directory) Attach(cid core.ConnID, room domain.RoomID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.conns[cid]
	if !ok {
		return false
	}
	e.Rooms[room] = struct{}{}
	log.Debug().Str("module", "app.directory").Str("cid", string(cid)).Str("room", string(room)).Msg("attached")
	return true
}

func (d *Directory) Detach(cid core.ConnID, room domain.RoomID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.conns[cid]
	if !ok {
		return false
	}
	if _, in := e.Rooms[room]; !in {
		return false
	}
	delete(e.Rooms, room)
	log.Debug().Str("module", "app.directory").Str("cid", string(cid)).Str("room", string(room)).Msg("detached")
	return true
}

func (d *Directory) InRoom(cid core.ConnID, room domain.RoomID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[cid]
	if !ok {
		return false
	}
	_, in := e.Rooms[room]
	return in
}

func (d *Directory) RoomsOf(cid core.ConnID) []domain.RoomID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[cid]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(e.Rooms))
}

// ConnectionsOf lists the user's connections attached to room.
func (d *Directory) ConnectionsOf(ctx context.Context, room domain.RoomID, user domain.UserID) ([]ConnSnap, error) {
	return d.collect(ctx, func(e *connEntry) bool {
		_, in := e.Rooms[room]
		return in && e.User == user
	})
}

// ConnectionsIn lists every connection attached to room.
func (d *Directory) ConnectionsIn(ctx context.Context, room domain.RoomID) ([]ConnSnap, error) {
	return d.collect(ctx, func(e *connEntry) bool {
		_, in := e.Rooms[room]
		return in
	})
}

// ConnectionsOfUser lists every connection of user regardless of room.
func (d *Directory) ConnectionsOfUser(user domain.UserID) []ConnSnap {
	out, _ := d.collect(context.Background(), func(e *connEntry) bool { return e.User == user })
	return out
}

func (d *Directory) collect(ctx context.Context, match func(*connEntry) bool) ([]ConnSnap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ConnSnap, 0)
	for cid, e := range d.conns {
		if match(e) {
			out = append(out, ConnSnap{CID: cid, User: e.User, Conn: e.Conn})
		}
	}
	slices.SortFunc(out, func(a, b ConnSnap) int { return cmp.Compare(a.CID, b.CID) })
	return out, nil
}

// EvictRoom detaches every connection from room and returns them.
func (d *Directory) EvictRoom(room domain.RoomID) []ConnSnap {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []ConnSnap
	for cid, e := range d.conns {
		if _, in := e.Rooms[room]; in {
			delete(e.Rooms, room)
			out = append(out, ConnSnap{CID: cid, User: e.User, Conn: e.Conn})
		}
	}
	if len(out) > 0 {
		log.Info().Str("module", "app.directory").Str("room", string(room)).Int("evicted", len(out)).Msg("evicted room connections")
	}
	return out
}

// Cancel stops the connection's pumps through its context.
func (d *Directory) Cancel(cid core.ConnID) bool {
	d.mu.RLock()
	e, ok := d.conns[cid]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.directory").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
