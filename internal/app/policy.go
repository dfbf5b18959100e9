package app

import "github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	CloseConnection
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, conn ConnSnap) BackpressureAction
}

// SimplePolicy closes slow connections. The client reconnects and resyncs,
// and the grace period keeps its membership alive meanwhile.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room domain.RoomID, conn ConnSnap) BackpressureAction {
	return CloseConnection
}
