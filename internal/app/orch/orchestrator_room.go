package orch

import (
	"context"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/view"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connect registers a freshly authenticated connection.
func (o *Orchestrator) Connect(cid core.ConnID, user domain.UserID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Conns.Bind(cid, user, conn, cancel)
}

// userOf returns the identity bound to the connection at handshake.
func (o *Orchestrator) userOf(cid core.ConnID) (domain.UserID, error) {
	c, ok := o.Conns.Lookup(cid)
	if !ok {
		return "", &domain.ValidationError{Op: "authenticate", Reason: "unknown connection"}
	}
	return c.User, nil
}

// attached authenticates cid and checks that it has joined room.
func (o *Orchestrator) attached(op string, cid core.ConnID, room domain.RoomID) (domain.UserID, error) {
	user, err := o.userOf(cid)
	if err != nil {
		return "", err
	}
	if !o.Conns.InRoom(cid, room) {
		return "", &domain.ValidationError{Op: op, Reason: "connection has not joined room " + string(room)}
	}
	return user, nil
}

func (o *Orchestrator) sendRoomInfo(cid core.ConnID, room *domain.Room, user domain.UserID) {
	o.sendTo(room.ID, cid, RoomInfoEvent{Type: EventRoomInfo, View: view.Project(room, view.For(room, user))})
}

// CreateRoom makes a new room with the caller as its only member.
func (o *Orchestrator) CreateRoom(ctx context.Context, cid core.ConnID) (domain.RoomID, error) {
	user, err := o.userOf(cid)
	if err != nil {
		return "", err
	}
	created, err := o.Registry.Create(user)
	if err != nil {
		return "", err
	}
	err = o.withRoom(created.ID, func(room *domain.Room) error {
		o.Conns.Attach(cid, room.ID)
		o.sendRoomInfo(cid, room, user)
		return nil
	})
	return created.ID, err
}

// Join adds the caller to an existing room. Joining again, from this or another
// connection, only refreshes liveness.
func (o *Orchestrator) Join(ctx context.Context, cid core.ConnID, id domain.RoomID) error {
	user, err := o.userOf(cid)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		// A live connection supersedes any pending removal.
		o.Grace.Cancel(id, user)
		wasAttached := o.Conns.InRoom(cid, id)
		o.Conns.Attach(cid, id)
		res, err := run(ctx, o.join, cid, room, user)
		if err != nil {
			if !wasAttached {
				o.Conns.Detach(cid, id)
			}
			return err
		}
		o.sendRoomInfo(cid, res.State, user)
		return nil
	})
}

// Leave removes the caller from the room together with all of their connections.
func (o *Orchestrator) Leave(ctx context.Context, cid core.ConnID, id domain.RoomID) error {
	user, err := o.userOf(cid)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		if _, err := run(ctx, o.leave, cid, room, user); err != nil {
			return err
		}
		o.Grace.Cancel(id, user)
		conns, err := o.Conns.ConnectionsOf(ctx, id, user)
		if err != nil {
			return err
		}
		for _, c := range conns {
			o.send(id, c, RoomLeftEvent{Type: EventLeftRoom, RoomID: id})
			o.Conns.Detach(c.CID, id)
		}
		return nil
	})
}

type MessageRequest struct {
	RoomID domain.RoomID
	UserID domain.UserID
	Text   string
}

// Message appends to the room chat. The request must carry the connection's
// own identity and a room the connection has joined.
func (o *Orchestrator) Message(ctx context.Context, cid core.ConnID, req MessageRequest) error {
	user, err := o.attached("message", cid, req.RoomID)
	if err != nil {
		return err
	}
	if req.UserID != "" && req.UserID != user {
		log.Warn().Str("module", "orch").Str("cid", string(cid)).Str("claimed", string(req.UserID)).Str("user", string(user)).Msg("message with foreign user id")
		return &domain.ValidationError{Op: "message", Reason: "message tagged for another user"}
	}
	return o.withRoom(req.RoomID, func(room *domain.Room) error {
		_, err := run(ctx, o.message, cid, room, app.MessageArgs{User: user, Text: req.Text})
		return err
	})
}

// Sync resends the caller's current projection of the room.
func (o *Orchestrator) Sync(ctx context.Context, cid core.ConnID, id domain.RoomID) error {
	user, err := o.attached("sync", cid, id)
	if err != nil {
		return err
	}
	return o.withRoom(id, func(room *domain.Room) error {
		o.sendRoomInfo(cid, room, user)
		return nil
	})
}
