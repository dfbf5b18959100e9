package signal

import (
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

type whoAmI struct {
	UserID domain.UserID   `json:"userId"`
	ConnID core.ConnID     `json:"connId"`
	Rooms  []domain.RoomID `json:"rooms"`
}

func (ctl *SignalWSController) handleWhoAmI(cid core.ConnID) (any, error) {
	c, ok := ctl.Orch.Conns.Lookup(cid)
	if !ok {
		return nil, &domain.ValidationError{Op: "whoami", Reason: "unknown connection"}
	}
	return whoAmI{UserID: c.User, ConnID: cid, Rooms: ctl.Orch.Conns.RoomsOf(cid)}, nil
}
