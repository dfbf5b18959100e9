package signal

import (
	"errors"
	"testing"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessageHidesInternals(t *testing.T) {
	ctl := NewSignalWSController(nil, Options{})
	assert.Equal(t, `room "X" not found`, ctl.errorMessage("c1", "join_room", domain.RoomNotFound("X")))
	assert.Equal(t, "message: rate limited", ctl.errorMessage("c1", "message", &domain.ValidationError{Op: "message", Reason: "rate limited"}))
	assert.Equal(t, "internal error", ctl.errorMessage("c1", "leave_room", &domain.InvariantViolation{Op: "leave", Detail: "x"}))
	assert.Equal(t, "internal error", ctl.errorMessage("c1", "create_room", errors.New("boom")))
}

func TestDecodeRoom(t *testing.T) {
	id, err := decodeRoom("join_room", []byte(`{"type":"join_room","roomId":"AB12X9"}`))
	assert.NoError(t, err)
	assert.Equal(t, domain.RoomID("AB12X9"), id)

	_, err = decodeRoom("join_room", []byte(`{"type":"join_room"}`))
	assert.True(t, domain.IsValidation(err))
	_, err = decodeRoom("join_room", []byte(`{"roomId":7}`))
	assert.True(t, domain.IsValidation(err))
}

func TestDispatchRecoversPanics(t *testing.T) {
	// A nil orchestrator makes every room handler panic.
	ctl := NewSignalWSController(nil, Options{})
	_, err := ctl.dispatch(t.Context(), "c1", nil, "create_room", []byte(`{}`))
	assert.True(t, domain.IsInvariant(err))

	_, err = ctl.dispatch(t.Context(), "c1", nil, "teleport", []byte(`{}`))
	assert.True(t, domain.IsValidation(err))
}
