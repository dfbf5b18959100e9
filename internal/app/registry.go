package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRoomIDLength = 6
	roomIDAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCreateAttempts   = 8
)

var ErrRoomIDExhausted = errors.New("no free room id")

// RoomRef is anything that names a room: a bare id or a held room value.
type RoomRef interface {
	Key() domain.RoomID
}

// RoomSummary is a cheap listing entry.
type RoomSummary struct {
	ID      domain.RoomID `json:"id"`
	Members int           `json:"members"`
	Online  int           `json:"online"`
	Playing bool          `json:"playing"`
}

type roomEntry struct {
	// mu serializes transitions on this room; room itself is guarded by Registry.mu.
	mu   sync.Mutex
	room *domain.Room
}

// Registry is the single authoritative map of live rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
	newID func() domain.RoomID
}

type RegistryOption func(*Registry)

func WithIDLength(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.newID = func() domain.RoomID { return randomRoomID(n) }
		}
	}
}

// WithIDGenerator replaces id generation; tests use it to force collisions.
func WithIDGenerator(gen func() domain.RoomID) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms: make(map[domain.RoomID]*roomEntry),
		newID: func() domain.RoomID { return randomRoomID(DefaultRoomIDLength) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func randomRoomID(n int) domain.RoomID {
	buf := make([]byte, n)
	limit := big.NewInt(int64(len(roomIDAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(fmt.Sprintf("room id entropy: %v", err))
		}
		buf[i] = roomIDAlphabet[idx.Int64()]
	}
	return domain.RoomID(buf)
}

// Create registers a new room owned by creator. A generated id that is already
// taken is never reused; after a few attempts Create gives up with an error.
func (r *Registry) Create(creator domain.UserID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		id := r.newID()
		if _, taken := r.rooms[id]; taken {
			log.Warn().Str("module", "app.registry").Str("room", string(id)).Int("attempt", attempt).Msg("room id collision")
			continue
		}
		room := domain.NewRoom(id, creator)
		r.rooms[id] = &roomEntry{room: room}
		log.Info().Str("module", "app.registry").Str("room", string(id)).Str("user", string(creator)).Msg("room created")
		return room, nil
	}
	return nil, fmt.Errorf("create room after %d attempts: %w", maxCreateAttempts, ErrRoomIDExhausted)
}

func (r *Registry) Get(id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return nil, domain.RoomNotFound(id)
	}
	return e.room, nil
}

// FetchOrValidate confirms ref still names a registered room and returns the
// registered value, which may be newer than a held one.
func (r *Registry) FetchOrValidate(ref RoomRef) (*domain.Room, error) {
	if ref == nil {
		return nil, &domain.ValidationError{Op: "fetch room", Reason: "no room given"}
	}
	return r.Get(ref.Key())
}

// Replace upserts room under its own id.
func (r *Registry) Replace(room *domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rooms[room.ID]; ok {
		e.room = room
		return
	}
	r.rooms[room.ID] = &roomEntry{room: room}
}

// Remove deletes the room and reports whether it was still there. Removal
// races are expected, so an absent id is only logged.
func (r *Registry) Remove(id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		log.Warn().Str("module", "app.registry").Str("room", string(id)).Msg("remove: room already gone")
		return false
	}
	delete(r.rooms, id)
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room removed")
	return true
}

// Serialize runs fn while holding the room's transition lock, so transitions
// on one room run one at a time. Other rooms are unaffected.
func (r *Registry) Serialize(id domain.RoomID, fn func() error) error {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return domain.RoomNotFound(id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The room may have been removed while we waited.
	r.mu.RLock()
	cur, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok || cur != e {
		return domain.RoomNotFound(id)
	}
	return fn()
}

func (r *Registry) List() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomSummary, 0, len(r.rooms))
	for id, e := range r.rooms {
		out = append(out, RoomSummary{
			ID:      id,
			Members: len(e.room.Members),
			Online:  len(e.room.Members) - len(e.room.Offline),
			Playing: e.room.Game != nil,
		})
	}
	return out
}
