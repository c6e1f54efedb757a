package game

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordbomb-backend/internal"
)

// =============================================================================
// ROOM MANAGEMENT
// =============================================================================

const roomInboxSize = 64

// RoomSummary is what the registry can see of a room without entering its loop.
type RoomSummary struct {
	ID        string              `json:"id"`
	Status    internal.RoomStatus `json:"status"`
	Mode      internal.GameMode   `json:"mode,omitempty"`
	Players   int                 `json:"players"`
	Connected int                 `json:"connected"`
}

// roomActor owns one room. Its state is only touched from the loop goroutine,
// so every action on the room is applied in arrival order.
type roomActor struct {
	id    string
	room  *internal.Room
	inbox chan func()

	done      chan struct{}
	closeOnce sync.Once
	closing   bool

	summary atomic.Pointer[RoomSummary]
}

func newRoomActor(id string) *roomActor {
	a := &roomActor{
		id:    id,
		room:  internal.NewRoom(id),
		inbox: make(chan func(), roomInboxSize),
		done:  make(chan struct{}),
	}
	a.publish()
	return a
}

func (a *roomActor) run() {
	for {
		select {
		case fn := <-a.inbox:
			fn()
			a.publish()
			if a.closing {
				a.stop()
				return
			}
		case <-a.done:
			return
		}
	}
}

// post queues fn on the room loop. It reports false once the room is gone.
func (a *roomActor) post(fn func()) bool {
	select {
	case <-a.done:
		return false
	default:
	}

	select {
	case a.inbox <- fn:
		return true
	case <-a.done:
		return false
	}
}

func (a *roomActor) stop() {
	a.closeOnce.Do(func() { close(a.done) })
}

func (a *roomActor) stopped() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

func (a *roomActor) publish() {
	r := a.room
	a.summary.Store(&RoomSummary{
		ID:        r.Id,
		Status:    r.Status,
		Mode:      r.Mode,
		Players:   r.GetPlayerCount(),
		Connected: r.ConnectedCount(),
	})
}

func (a *roomActor) Summary() RoomSummary {
	return *a.summary.Load()
}

// Repository indexes live rooms by id.
type Repository struct {
	mu    sync.RWMutex
	rooms map[string]*roomActor
	log   zerolog.Logger
}

func NewRepository(log zerolog.Logger) *Repository {
	return &Repository{
		rooms: make(map[string]*roomActor),
		log:   log,
	}
}

// CreateOrGet returns the room with this id, starting a fresh one when needed.
func (r *Repository) CreateOrGet(id string) (*roomActor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.rooms[id]; ok && !a.stopped() {
		return a, false
	}

	a := newRoomActor(id)
	r.rooms[id] = a
	go a.run()

	r.log.Info().Str("room", id).Msg("room created")
	return a, true
}

func (r *Repository) Get(id string) (*roomActor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.rooms[id]
	if !ok || a.stopped() {
		return nil, false
	}
	return a, true
}

// Destroy drops the room from the index. It must run on the room's own loop;
// the loop exits once the current action returns.
func (r *Repository) Destroy(a *roomActor) {
	r.mu.Lock()
	if cur, ok := r.rooms[a.id]; ok && cur == a {
		delete(r.rooms, a.id)
	}
	r.mu.Unlock()

	a.closing = true
	r.log.Info().Str("room", a.id).Msg("room destroyed")
}

// Joinable returns the id of a waiting room with a free seat, or "" when there is none.
func (r *Repository) Joinable(maxPlayers int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, a := range r.rooms {
		s := a.Summary()
		if s.Status == internal.StatusWaiting && s.Players < maxPlayers && s.Connected > 0 {
			r.log.Debug().Str("room", id).Int("players", s.Players).Msg("found joinable room")
			return id
		}
	}
	return ""
}

func (r *Repository) Summaries() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomSummary, 0, len(r.rooms))
	for _, a := range r.rooms {
		out = append(out, a.Summary())
	}
	return out
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close stops every room loop.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.rooms {
		a.stop()
		delete(r.rooms, id)
	}
}
