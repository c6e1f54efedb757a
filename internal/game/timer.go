package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

type turnTimer struct {
	startTime time.Time
	duration  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func (t *turnTimer) remaining() time.Duration {
	return max(t.duration-time.Since(t.startTime), 0)
}

// Timers keeps at most one countdown per room.
type Timers struct {
	mu     sync.Mutex
	active map[string]*turnTimer
	tick   time.Duration
	log    zerolog.Logger
}

func NewTimers(log zerolog.Logger) *Timers {
	return &Timers{
		active: make(map[string]*turnTimer),
		tick:   time.Second,
		log:    log,
	}
}

// StartTurnTimer arms a countdown for the room, replacing any previous one.
// onExpire runs exactly once, on natural expiry only. onTick, when set, is called
// every tick interval with the time left.
func (t *Timers) StartTurnTimer(roomID string, duration time.Duration, onExpire func(), onTick func(time.Duration)) {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	timer := &turnTimer{
		startTime: time.Now(),
		duration:  duration,
		ctx:       ctx,
		cancel:    cancel,
	}

	t.mu.Lock()
	if prev := t.active[roomID]; prev != nil {
		prev.cancel()
	}
	t.active[roomID] = timer
	t.mu.Unlock()

	t.log.Debug().Str("room", roomID).Dur("duration", duration).Msg("timer started")

	go t.run(roomID, timer, onExpire, onTick)
}

func (t *Timers) run(roomID string, timer *turnTimer, onExpire func(), onTick func(time.Duration)) {
	var tickC <-chan time.Time
	if onTick != nil {
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-tickC:
			if t.isCurrent(roomID, timer) {
				onTick(timer.remaining())
			}

		case <-timer.ctx.Done():
			if !errors.Is(timer.ctx.Err(), context.DeadlineExceeded) {
				t.log.Debug().Str("room", roomID).Msg("timer cancelled before expiry")
				return
			}
			// A concurrent Cancel or restart may have won the race for this timer.
			if !t.release(roomID, timer) {
				return
			}
			t.log.Debug().Str("room", roomID).Dur("duration", timer.duration).Msg("timer expired")
			onExpire()
			return
		}
	}
}

func (t *Timers) isCurrent(roomID string, timer *turnTimer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[roomID] == timer
}

func (t *Timers) release(roomID string, timer *turnTimer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[roomID] != timer {
		return false
	}
	delete(t.active, roomID)
	return true
}

// Cancel stops the room's countdown. It is safe to call with no timer armed and
// reports whether a timer was actually stopped.
func (t *Timers) Cancel(roomID string) bool {
	t.mu.Lock()
	timer := t.active[roomID]
	delete(t.active, roomID)
	t.mu.Unlock()

	if timer == nil {
		return false
	}
	timer.cancel()
	return true
}

// Remaining is the time left on the room's countdown, zero when none is armed.
func (t *Timers) Remaining(roomID string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer := t.active[roomID]; timer != nil {
		return timer.remaining()
	}
	return 0
}

// Stop cancels every countdown.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.active {
		timer.cancel()
		delete(t.active, id)
	}
}
