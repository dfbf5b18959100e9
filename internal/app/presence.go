package app

import (
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

// join adds user to the room. Joining again is a liveness signal, not an error.
func (t *Transitions) join(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if room.IsMember(user) {
		return t.markOnline(room, user)
	}
	next := room.Clone()
	next.Members = domain.AppendID(room.Members, user)
	if room.Game != nil {
		g, err := t.dealIn(room.Game, user)
		if err != nil {
			return room, false, err
		}
		next.Game = g
	}
	log.Info().Str("module", "app.presence").Str("room", string(room.ID)).Str("user", string(user)).Msg("member joined")
	return next, true, nil
}

func (t *Transitions) markOnline(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if !room.IsMember(user) {
		return room, false, domain.NotMember("mark-online", user)
	}
	if !room.IsOffline(user) {
		return room, false, nil
	}
	next := room.Clone()
	next.Offline = domain.WithoutID(room.Offline, user)
	return next, true, nil
}

func (t *Transitions) markOffline(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if !room.IsMember(user) {
		return room, false, domain.NotMember("mark-offline", user)
	}
	if room.IsOffline(user) {
		return room, false, nil
	}
	next := room.Clone()
	next.Offline = domain.AppendID(room.Offline, user)
	return next, true, nil
}

// leave removes user from members and the offline set. Leaving a room you are
// not in is a no-op.
func (t *Transitions) leave(room *domain.Room, user domain.UserID) (*domain.Room, bool, error) {
	if err := room.CheckInvariants("leave"); err != nil {
		return room, false, err
	}
	if !room.IsMember(user) {
		log.Debug().Str("module", "app.presence").Str("room", string(room.ID)).Str("user", string(user)).Msg("leave: not a member")
		return room, false, nil
	}
	next := room.Clone()
	next.Members = domain.WithoutID(room.Members, user)
	next.Offline = domain.WithoutID(room.Offline, user)
	if room.Game != nil {
		g, err := t.removePlayer(room.Game, room.Members, next.Members, user)
		if err != nil {
			return room, false, err
		}
		next.Game = g
	}
	log.Info().Str("module", "app.presence").Str("room", string(room.ID)).Str("user", string(user)).Int("remaining", len(next.Members)).Msg("member left")
	return next, true, nil
}
