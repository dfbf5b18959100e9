package core

//go:generate go tool mockgen -destination=./mocks/signal_connection_mock.go -package=mocks . SignalConnection

// Frame is one encoded outbound message.
type Frame []byte

// ConnID identifies a single live transport connection. One user may hold many.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
