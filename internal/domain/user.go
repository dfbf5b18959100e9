// Package domain holds the room and game data model. Values are treated as
// immutable once published: transitions build new values instead of editing
// shared ones.
package domain

import (
	"errors"
	"strings"
)

const MaxUserIDLen = 64

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

// UserID is the externally authenticated identity of a player.
type UserID string

// ParseUserID validates an id handed over by the authentication layer.
func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrUserIDEmpty
	}
	if len(raw) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(raw), nil
}
