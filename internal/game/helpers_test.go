package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/stretchr/testify/require"
)

// fakeOracle knows a fixed set of words. A non-nil gate holds IsRealWord until it is closed.
type fakeOracle struct {
	real map[string]bool
	gate chan struct{}
}

func newFakeOracle(words ...string) *fakeOracle {
	o := &fakeOracle{real: make(map[string]bool)}
	for _, w := range words {
		o.real[w] = true
	}
	return o
}

func (o *fakeOracle) IsRealWord(ctx context.Context, word string) bool {
	if o.gate != nil {
		select {
		case <-o.gate:
		case <-ctx.Done():
			return false
		}
	}
	return o.real[word]
}

func (o *fakeOracle) LookupDefinition(_ context.Context, word string) (internal.Definition, bool) {
	if !o.real[word] {
		return internal.Definition{}, false
	}
	return internal.Definition{Word: word, Meaning: "a test word"}, true
}

type sentEvent struct {
	roomID   string
	playerID string
	msg      internal.Message[any]
}

// recorder keeps every event the engine emits. panicOn makes it blow up on one event type.
type recorder struct {
	mu      sync.Mutex
	events  []sentEvent
	panicOn string
}

func (r *recorder) Broadcast(roomID string, msg internal.Message[any]) {
	r.record(sentEvent{roomID: roomID, msg: msg})
}

func (r *recorder) SendTo(roomID, playerID string, msg internal.Message[any]) {
	r.record(sentEvent{roomID: roomID, playerID: playerID, msg: msg})
}

func (r *recorder) record(ev sentEvent) {
	r.mu.Lock()
	panicOn := r.panicOn
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if panicOn != "" && ev.msg.Type == panicOn {
		panic("emitter exploded on " + panicOn)
	}
}

func (r *recorder) ofType(kind string) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, ev := range r.events {
		if ev.msg.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last(kind string) (sentEvent, bool) {
	evs := r.ofType(kind)
	if len(evs) == 0 {
		return sentEvent{}, false
	}
	return evs[len(evs)-1], true
}

// fixedRand always draws the same values: pool index n and probability f.
type fixedRand struct {
	mu sync.Mutex
	f  float64
	n  int
}

func (r *fixedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f
}

func (r *fixedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n % n
}

func (r *fixedRand) setFloat(f float64) {
	r.mu.Lock()
	r.f = f
	r.mu.Unlock()
}

func testSettings() Settings {
	s := DefaultSettings()
	s.TurnDuration = time.Minute
	s.WordmasterTurnDuration = time.Minute
	s.MinTurnDuration = time.Minute
	s.LobbyResetDelay = time.Minute
	return s
}

type harness struct {
	t      *testing.T
	engine *Engine
	oracle *fakeOracle
	events *recorder
	rng    *fixedRand
}

// newHarness builds an engine whose wordpieces are always the first of each
// pool: "ing" normally and "ght" for trapped players.
func newHarness(t *testing.T, settings Settings) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		oracle: newFakeOracle("running", "singing", "bring", "ringing", "interesting", "night", "sing"),
		events: &recorder{},
		rng:    &fixedRand{f: 0.99},
	}
	h.engine = NewEngine(h.oracle, h.events, WithSettings(settings), WithRand(h.rng))
	t.Cleanup(h.engine.Shutdown)
	return h
}

func (h *harness) join(roomID, playerID string, asHost bool) JoinResult {
	h.t.Helper()
	res, err := h.engine.Join(context.Background(), roomID, internal.NewPlayer(playerID, playerID, "#fff", ""), asHost)
	require.NoError(h.t, err)
	return res
}

// room seats the players in order, the first one as host.
func (h *harness) room(roomID string, players ...string) {
	h.t.Helper()
	for i, id := range players {
		h.join(roomID, id, i == 0)
	}
}

func (h *harness) start(roomID, host string, mode internal.GameMode) {
	h.t.Helper()
	require.NoError(h.t, h.engine.StartGame(context.Background(), roomID, host, string(mode)))
}

func (h *harness) snapshot(roomID string) internal.GameSnapshot {
	h.t.Helper()
	snap, err := h.engine.Snapshot(context.Background(), roomID)
	require.NoError(h.t, err)
	return snap
}

// mutate runs fn on the room's loop, for arranging state a game would take long to reach.
func (h *harness) mutate(roomID string, fn func(room *internal.Room)) {
	h.t.Helper()
	a, err := h.engine.actor(roomID)
	require.NoError(h.t, err)
	require.NoError(h.t, h.engine.do(context.Background(), a, func(room *internal.Room) error {
		fn(room)
		return nil
	}))
}

func (h *harness) grant(roomID, playerID string, kind internal.PowerUpKind) {
	h.t.Helper()
	h.mutate(roomID, func(room *internal.Room) {
		room.Players[playerID].PowerUps[kind]++
	})
}

func (h *harness) player(roomID, playerID string) internal.PlayerSnapshot {
	h.t.Helper()
	for _, p := range h.snapshot(roomID).Room.Players {
		if p.ID == playerID {
			return p
		}
	}
	h.t.Fatalf("player %s not in room %s", playerID, roomID)
	return internal.PlayerSnapshot{}
}
