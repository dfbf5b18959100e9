package orch

import (
	"context"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

// Disconnect forgets a closed connection. For every room where this was the
// user's last connection, the user is marked offline and removal is scheduled
// after the grace period.
func (o *Orchestrator) Disconnect(ctx context.Context, cid core.ConnID) {
	// The connection's own context is usually already canceled here.
	ctx = context.WithoutCancel(ctx)
	user, rooms, ok := o.Conns.Unbind(cid)
	if !ok {
		return
	}
	for _, id := range rooms {
		if err := o.dropConnection(ctx, cid, id, user); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(id)).Str("user", string(user)).Msg("disconnect")
		}
	}
}

func (o *Orchestrator) dropConnection(ctx context.Context, cid core.ConnID, id domain.RoomID, user domain.UserID) error {
	err := o.withRoom(id, func(room *domain.Room) error {
		left, err := o.Conns.ConnectionsOf(ctx, id, user)
		if err != nil {
			return err
		}
		if len(left) > 0 || !room.IsMember(user) {
			return nil
		}
		if _, err := run(ctx, o.markOffline, cid, room, user); err != nil {
			return err
		}
		o.Grace.Schedule(id, user, func() { o.expireGrace(ctx, id, user) })
		log.Info().Str("module", "orch").Str("room", string(id)).Str("user", string(user)).Dur("grace", o.Grace.Delay()).Msg("member offline")
		return nil
	})
	if domain.IsNotFound(err) {
		return nil
	}
	return err
}

// expireGrace removes the user unless they came back in the meantime.
func (o *Orchestrator) expireGrace(ctx context.Context, id domain.RoomID, user domain.UserID) {
	err := o.withRoom(id, func(room *domain.Room) error {
		if !room.IsOffline(user) {
			return nil
		}
		live, err := o.Conns.ConnectionsOf(ctx, id, user)
		if err != nil {
			return err
		}
		if len(live) > 0 {
			return nil
		}
		log.Info().Str("module", "orch").Str("room", string(id)).Str("user", string(user)).Msg("grace expired, removing member")
		_, err = run(ctx, o.leave, "", room, user)
		return err
	})
	if err != nil && !domain.IsNotFound(err) {
		log.Error().Err(err).Str("module", "orch").Str("room", string(id)).Str("user", string(user)).Msg("grace expiry")
	}
}
