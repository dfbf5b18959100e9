package domain

import "fmt"

type RoomID string

// Key lets a bare id stand in wherever a room reference is accepted.
func (id RoomID) Key() RoomID { return id }

type ChatMessage struct {
	SenderID UserID `json:"senderId"`
	Text     string `json:"text"`
}

// Room is the authoritative record of one session.
// Members order is host/turn order. Offline is always a subset of Members.
type Room struct {
	ID      RoomID
	Members []UserID
	Offline []UserID
	Chat    []ChatMessage
	Game    *GameState
}

func NewRoom(id RoomID, creator UserID) *Room {
	return &Room{ID: id, Members: []UserID{creator}}
}

func (r *Room) Key() RoomID { return r.ID }

// Clone is shallow: slices and the game pointer are shared with r and must be
// replaced, not edited, on the copy.
func (r *Room) Clone() *Room {
	c := *r
	return &c
}

func (r *Room) IsMember(u UserID) bool  { return ContainsID(r.Members, u) }
func (r *Room) IsOffline(u UserID) bool { return ContainsID(r.Offline, u) }

func (r *Room) Host() (UserID, bool) {
	if len(r.Members) == 0 {
		return "", false
	}
	return r.Members[0], true
}

// CheckInvariants reports an offline id that is not a member.
func (r *Room) CheckInvariants(op string) error {
	for _, u := range r.Offline {
		if !r.IsMember(u) {
			return &InvariantViolation{Op: op, Detail: fmt.Sprintf("room %s: %q offline without membership", r.ID, u)}
		}
	}
	return nil
}
