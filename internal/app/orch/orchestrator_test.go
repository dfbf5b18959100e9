package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/core/mocks"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recorder collects the frames one mocked connection was sent.
type recorder struct {
	mu     sync.Mutex
	frames []map[string]any
}

func (r *recorder) record(f core.Frame) error {
	var m map[string]any
	if err := json.Unmarshal(f, &m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, m)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f["type"].(string))
	}
	return out
}

func (r *recorder) last(typ string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i]["type"] == typ {
			return r.frames[i]
		}
	}
	return nil
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

type harness struct {
	t    *testing.T
	ctrl *gomock.Controller
	o    *Orchestrator
	ctx  context.Context
}

func newHarness(t *testing.T, grace time.Duration) *harness {
	n := 0
	rules := app.Rules{
		HandSize: 3,
		Cards:    func() ([]domain.Card, []domain.Card) { return domain.NewCardSet(6, 40) },
		Shuffle:  func([]domain.Card) {},
		NewSlotKey: func() domain.SlotKey {
			n++
			return domain.SlotKey(fmt.Sprintf("slot-%d", n))
		},
	}
	o := New(
		app.NewRegistry(app.WithIDGenerator(func() domain.RoomID { return "AB12X9" })),
		app.NewDirectory(),
		app.NewTransitions(rules),
		app.NewScheduler(grace),
		app.SimplePolicy{},
	)
	t.Cleanup(o.Shutdown)
	return &harness{t: t, ctrl: gomock.NewController(t), o: o, ctx: context.Background()}
}

func (h *harness) connect(cid core.ConnID, user domain.UserID) *recorder {
	rec := &recorder{}
	conn := mocks.NewMockSignalConnection(h.ctrl)
	conn.EXPECT().TrySend(gomock.Any()).DoAndReturn(rec.record).AnyTimes()
	conn.EXPECT().Close().AnyTimes()
	h.o.Connect(cid, user, conn, nil)
	return rec
}

func (h *harness) members() []domain.UserID {
	room, err := h.o.Registry.Get("AB12X9")
	if err != nil {
		return nil
	}
	return room.Members
}

func (h *harness) room() *domain.Room {
	room, err := h.o.Registry.Get("AB12X9")
	require.NoError(h.t, err)
	return room
}

// threeInRoom creates AB12X9 for p1 and lets p2 and p3 join.
func (h *harness) threeInRoom() (r1, r2, r3 *recorder) {
	r1 = h.connect("c1", "p1")
	r2 = h.connect("c2", "p2")
	r3 = h.connect("c3", "p3")
	_, err := h.o.CreateRoom(h.ctx, "c1")
	require.NoError(h.t, err)
	require.NoError(h.t, h.o.Join(h.ctx, "c2", "AB12X9"))
	require.NoError(h.t, h.o.Join(h.ctx, "c3", "AB12X9"))
	r1.reset()
	r2.reset()
	r3.reset()
	return r1, r2, r3
}

func TestCreateRoomNotifiesCreatorOnly(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1 := h.connect("c1", "p1")
	r2 := h.connect("c2", "p2")

	id, err := h.o.CreateRoom(h.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("AB12X9"), id)
	assert.Equal(t, []string{EventRoomInfo}, r1.types())
	assert.Empty(t, r2.types())
	assert.True(t, h.o.Conns.InRoom("c1", id))

	_, err = h.o.CreateRoom(h.ctx, "unknown")
	assert.True(t, domain.IsValidation(err))
}

func TestJoinBroadcastsToOthers(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1 := h.connect("c1", "p1")
	r2 := h.connect("c2", "p2")
	_, err := h.o.CreateRoom(h.ctx, "c1")
	require.NoError(t, err)
	r1.reset()

	require.NoError(t, h.o.Join(h.ctx, "c2", "AB12X9"))
	assert.Equal(t, []string{EventRoomInfo}, r2.types())
	assert.Equal(t, []string{EventPlayersUpdate}, r1.types())
	players := r1.last(EventPlayersUpdate)["players"].([]any)
	assert.Len(t, players, 2)

	// A second join is a liveness refresh: no broadcast, fresh room_info.
	r1.reset()
	require.NoError(t, h.o.Join(h.ctx, "c2", "AB12X9"))
	assert.Empty(t, r1.types())
	assert.Equal(t, []domain.UserID{"p1", "p2"}, h.members())
}

func TestJoinMissingRoom(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1 := h.connect("c1", "p1")
	err := h.o.Join(h.ctx, "c1", "NOPE00")
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, r1.types())
	assert.False(t, h.o.Conns.InRoom("c1", "NOPE00"))
}

func TestMessageEchoesToWholeRoom(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1, r2, r3 := h.threeInRoom()

	require.NoError(t, h.o.Message(h.ctx, "c2", MessageRequest{RoomID: "AB12X9", UserID: "p2", Text: "hello"}))
	for _, r := range []*recorder{r1, r2, r3} {
		msg := r.last(EventMessage)
		require.NotNil(t, msg)
		assert.Equal(t, map[string]any{"senderId": "p2", "text": "hello"}, msg["message"])
	}

	err := h.o.Message(h.ctx, "c2", MessageRequest{RoomID: "AB12X9", UserID: "p1", Text: "spoof"})
	assert.True(t, domain.IsValidation(err))

	h.connect("c4", "p4")
	err = h.o.Message(h.ctx, "c4", MessageRequest{RoomID: "AB12X9", Text: "not joined"})
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, h.room().Chat, 1)
}

func TestReconnectWithinGraceKeepsMember(t *testing.T) {
	h := newHarness(t, 60*time.Millisecond)
	r1, _, _ := h.threeInRoom()

	h.o.Disconnect(h.ctx, "c2")
	assert.True(t, h.room().IsOffline("p2"))
	assert.True(t, h.o.Grace.Pending("AB12X9", "p2"))
	players := r1.last(EventPlayersUpdate)["players"].([]any)
	assert.Equal(t, map[string]any{"id": "p2", "online": false}, players[1])

	h.connect("c2b", "p2")
	require.NoError(t, h.o.Join(h.ctx, "c2b", "AB12X9"))
	assert.False(t, h.room().IsOffline("p2"))
	assert.False(t, h.o.Grace.Pending("AB12X9", "p2"))

	assert.Never(t, func() bool { return len(h.members()) != 3 }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestGraceExpiryRemovesMemberAndDestroysRoom(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	h.threeInRoom()

	h.o.Disconnect(h.ctx, "c3")
	assert.Eventually(t, func() bool { return len(h.members()) == 2 }, time.Second, 5*time.Millisecond)

	h.o.Disconnect(h.ctx, "c2")
	h.o.Disconnect(h.ctx, "c1")
	assert.Eventually(t, func() bool {
		_, err := h.o.Registry.Get("AB12X9")
		return domain.IsNotFound(err)
	}, time.Second, 5*time.Millisecond)
}

func TestSecondConnectionKeepsUserOnline(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	h.threeInRoom()
	h.connect("c2b", "p2")
	require.NoError(t, h.o.Join(h.ctx, "c2b", "AB12X9"))

	h.o.Disconnect(h.ctx, "c2")
	assert.False(t, h.room().IsOffline("p2"))
	assert.False(t, h.o.Grace.Pending("AB12X9", "p2"))
}

func TestLeaveDetachesEveryConnection(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1, r2, _ := h.threeInRoom()
	r2b := h.connect("c2b", "p2")
	require.NoError(t, h.o.Join(h.ctx, "c2b", "AB12X9"))
	r1.reset()

	require.NoError(t, h.o.Leave(h.ctx, "c2", "AB12X9"))
	assert.Equal(t, []domain.UserID{"p1", "p3"}, h.members())
	assert.NotNil(t, r2.last(EventLeftRoom))
	assert.NotNil(t, r2b.last(EventLeftRoom))
	assert.False(t, h.o.Conns.InRoom("c2b", "AB12X9"))
	assert.NotNil(t, r1.last(EventPlayersUpdate))

	require.NoError(t, h.o.Leave(h.ctx, "c1", "AB12X9"))
	require.NoError(t, h.o.Leave(h.ctx, "c3", "AB12X9"))
	_, err := h.o.Registry.Get("AB12X9")
	assert.True(t, domain.IsNotFound(err))
}

func TestGameUpdateIsProjectedPerConnection(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1, r2, r3 := h.threeInRoom()

	err := h.o.StartGame(h.ctx, "c2", "AB12X9")
	assert.True(t, domain.IsValidation(err), "only the host starts")
	require.NoError(t, h.o.StartGame(h.ctx, "c1", "AB12X9"))

	for user, r := range map[string]*recorder{"p1": r1, "p2": r2, "p3": r3} {
		ev := r.last(EventGameUpdate)
		require.NotNil(t, ev, user)
		game := ev["game"].(map[string]any)
		for _, raw := range game["players"].([]any) {
			p := raw.(map[string]any)
			hand := p["hand"].(map[string]any)
			assert.Equal(t, p["id"] == user, hand["revealed"], "%s viewing %s", user, p["id"])
			assert.EqualValues(t, 3, hand["count"])
		}
	}

	g := h.room().Game
	card := g.Players["p2"].Hand[0].ID
	require.NoError(t, h.o.Submit(h.ctx, "c2", "AB12X9", []string{card}))
	round := r1.last(EventGameUpdate)["game"].(map[string]any)["round"].(map[string]any)
	assert.Equal(t, []any{"p3"}, round["waiting"])
	assert.Nil(t, round["submissions"])

	require.NoError(t, h.o.EndGame(h.ctx, "c1", "AB12X9"))
	ended := r3.last(EventGameUpdate)
	assert.Nil(t, ended["game"])
}

func TestSyncResendsProjection(t *testing.T) {
	h := newHarness(t, time.Minute)
	_, r2, _ := h.threeInRoom()
	require.NoError(t, h.o.Sync(h.ctx, "c2", "AB12X9"))
	info := r2.last(EventRoomInfo)
	require.NotNil(t, info)
	assert.Equal(t, "AB12X9", info["view"].(map[string]any)["id"])

	h.connect("c9", "p9")
	assert.True(t, domain.IsValidation(h.o.Sync(h.ctx, "c9", "AB12X9")))
}

func TestBackpressureClosesConnection(t *testing.T) {
	h := newHarness(t, time.Minute)
	r1 := h.connect("c1", "p1")
	_, err := h.o.CreateRoom(h.ctx, "c1")
	require.NoError(t, err)

	slow := mocks.NewMockSignalConnection(h.ctrl)
	canceled := false
	gomock.InOrder(
		slow.EXPECT().TrySend(gomock.Any()).Return(nil),
		slow.EXPECT().TrySend(gomock.Any()).Return(errors.New("backpressure")),
	)
	slow.EXPECT().Close().Times(1)
	h.o.Connect("c2", "p2", slow, func() { canceled = true })
	require.NoError(t, h.o.Join(h.ctx, "c2", "AB12X9"))

	require.NoError(t, h.o.Message(h.ctx, "c1", MessageRequest{RoomID: "AB12X9", Text: "hi"}))
	assert.True(t, canceled)
	assert.NotNil(t, r1.last(EventMessage))
}
