package app

import (
	"context"
	"testing"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core/mocks"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func cids(snaps []ConnSnap) []core.ConnID {
	out := make([]core.ConnID, len(snaps))
	for i, s := range snaps {
		out[i] = s.CID
	}
	return out
}

func TestDirectoryAttachAndQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := NewDirectory()
	d.Bind("c1", "p1", mocks.NewMockSignalConnection(ctrl), nil)
	d.Bind("c2", "p1", mocks.NewMockSignalConnection(ctrl), nil)
	d.Bind("c3", "p2", mocks.NewMockSignalConnection(ctrl), nil)

	assert.True(t, d.Attach("c1", "R1"))
	assert.True(t, d.Attach("c2", "R1"))
	assert.True(t, d.Attach("c3", "R1"))
	assert.True(t, d.Attach("c1", "R2"))
	assert.False(t, d.Attach("missing", "R1"))

	ctx := context.Background()
	of, err := d.ConnectionsOf(ctx, "R1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []core.ConnID{"c1", "c2"}, cids(of))

	in, err := d.ConnectionsIn(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, []core.ConnID{"c1", "c2", "c3"}, cids(in))

	assert.Len(t, d.ConnectionsOfUser("p1"), 2)
	assert.Equal(t, []domain.RoomID{"R1", "R2"}, d.RoomsOf("c1"))
	assert.True(t, d.InRoom("c1", "R2"))
	assert.False(t, d.InRoom("c3", "R2"))

	assert.True(t, d.Detach("c2", "R1"))
	assert.False(t, d.Detach("c2", "R1"))

	user, rooms, ok := d.Unbind("c1")
	assert.True(t, ok)
	assert.Equal(t, domain.UserID("p1"), user)
	assert.Equal(t, []domain.RoomID{"R1", "R2"}, rooms)
	_, _, ok = d.Unbind("c1")
	assert.False(t, ok)
}

func TestDirectoryCanceledContext(t *testing.T) {
	d := NewDirectory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.ConnectionsIn(ctx, "R1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryEvictRoomAndCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := NewDirectory()
	canceled := false
	d.Bind("c1", "p1", mocks.NewMockSignalConnection(ctrl), func() { canceled = true })
	d.Attach("c1", "R1")
	d.Attach("c1", "R2")

	evicted := d.EvictRoom("R1")
	assert.Equal(t, []core.ConnID{"c1"}, cids(evicted))
	assert.Equal(t, []domain.RoomID{"R2"}, d.RoomsOf("c1"))
	assert.Empty(t, d.EvictRoom("R1"))

	assert.True(t, d.Cancel("c1"))
	assert.True(t, canceled)
	assert.False(t, d.Cancel("nope"))
}
