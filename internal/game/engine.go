package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/words"
)

// Settings tune the rules of every game the engine runs.
type Settings struct {
	StartingLives          int
	TurnDuration           time.Duration
	WordmasterTurnDuration time.Duration
	MinTurnDuration        time.Duration
	TurnDurationStep       time.Duration
	PowerUpChance          float64
	PowerUpMinLength       int
	MaxPlayers             int
	LobbyResetDelay        time.Duration
	DefinitionTimeout      time.Duration

	// TimerTicks enables a game:timer broadcast every second of a turn.
	TimerTicks bool
}

func DefaultSettings() Settings {
	return Settings{
		StartingLives:          internal.DefaultStartingLives,
		TurnDuration:           internal.DefaultTurnDuration,
		WordmasterTurnDuration: internal.WordmasterTurnDuration,
		MinTurnDuration:        internal.MinTurnDuration,
		TurnDurationStep:       internal.TurnDurationStep,
		PowerUpChance:          internal.PowerUpChance,
		PowerUpMinLength:       internal.PowerUpMinWordLength,
		MaxPlayers:             internal.MaxPlayersPerRoom,
		LobbyResetDelay:        internal.LobbyResetDelay,
		DefinitionTimeout:      internal.DefaultDefinitionTimeout,
	}
}

// WordOracle answers word questions. *words.Oracle is the production implementation.
type WordOracle interface {
	IsRealWord(ctx context.Context, word string) bool
	LookupDefinition(ctx context.Context, word string) (internal.Definition, bool)
}

// Rand drives wordpiece draws and power-up grants. Implementations must be
// safe for use from several rooms at once.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

var _ words.Source = Rand(nil)

type Engine struct {
	rooms    *Repository
	timers   *Timers
	oracle   WordOracle
	emit     Emitter
	rng      Rand
	settings Settings
	log      zerolog.Logger
}

type Option func(*Engine)

func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(oracle WordOracle, emit Emitter, opts ...Option) *Engine {
	e := &Engine{
		oracle:   oracle,
		emit:     emit,
		rng:      globalRand{},
		settings: DefaultSettings(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.emit == nil {
		e.emit = NopEmitter{}
	}
	e.log = e.log.With().Str("component", "engine").Logger()
	e.rooms = NewRepository(e.log)
	e.timers = NewTimers(e.log)
	return e
}

func (e *Engine) Settings() Settings {
	return e.settings
}

// Shutdown stops every timer and room loop. Pending actions fail with ErrRoomClosed.
func (e *Engine) Shutdown() {
	e.timers.Stop()
	e.rooms.Close()
}

// =============================================================================
// ROOM LOOP PLUMBING
// =============================================================================

// do runs fn on the room's loop and waits for its result.
func (e *Engine) do(ctx context.Context, a *roomActor, fn func(room *internal.Room) error) error {
	errCh := make(chan error, 1)
	posted := a.post(func() {
		defer e.recoverRoom(a, errCh)
		errCh <- fn(a.room)
		e.verify(a)
	})
	if !posted {
		return ErrRoomClosed
	}

	select {
	case err := <-errCh:
		return err
	case <-a.done:
		select {
		case err := <-errCh:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn on the room's loop without waiting. Used by timers.
func (e *Engine) post(a *roomActor, fn func(room *internal.Room)) {
	a.post(func() {
		defer e.recoverRoom(a, nil)
		fn(a.room)
		e.verify(a)
	})
}

// recoverRoom ends the game of a room whose action panicked. The room stays
// usable; its players land in the Over state.
func (e *Engine) recoverRoom(a *roomActor, errCh chan<- error) {
	r := recover()
	if r == nil {
		return
	}
	e.log.Error().
		Str("room", a.id).
		Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("room action panicked")

	if a.room.Status == internal.StatusPlaying {
		e.forceOver(a)
	}
	if errCh != nil {
		select {
		case errCh <- ErrRoomCorrupted:
		default:
		}
	}
}

// forceOver ends the game even when the turn state is too broken to score.
func (e *Engine) forceOver(a *roomActor) {
	defer func() {
		if r := recover(); r != nil {
			e.timers.Cancel(a.id)
			a.room.Status = internal.StatusOver
			a.room.Turn = nil
		}
	}()
	e.finish(a, a.room, nil)
}

// verify checks the turn invariants after every action and forces the game
// over if they no longer hold.
func (e *Engine) verify(a *roomActor) {
	room := a.room
	if room.Status != internal.StatusPlaying {
		return
	}
	t := room.Turn
	switch {
	case t == nil:
	case len(t.TurnOrder) == 0:
	case room.Players[t.CurrentTurn] == nil:
	case !NewSequencer(t).Contains(t.CurrentTurn):
	default:
		return
	}
	e.log.Error().Str("room", room.Id).Msg("turn state inconsistent, ending game")
	e.forceOver(a)
}

func (e *Engine) actor(roomID string) (*roomActor, error) {
	a, ok := e.rooms.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return a, nil
}

// =============================================================================
// PUBLIC API
// =============================================================================

// Join seats a player. asHost creates the room when it does not exist yet;
// otherwise joining an unknown room fails with ErrRoomNotFound.
func (e *Engine) Join(ctx context.Context, roomID string, p *internal.Player, asHost bool) (JoinResult, error) {
	for attempt := 0; ; attempt++ {
		var a *roomActor
		created := false
		if asHost {
			a, created = e.rooms.CreateOrGet(roomID)
		} else {
			var err error
			if a, err = e.actor(roomID); err != nil {
				return JoinResult{}, err
			}
		}

		res, err := e.join(ctx, a, p, asHost)
		// The room may have been torn down between lookup and join.
		if errors.Is(err, ErrRoomClosed) && asHost && attempt == 0 {
			continue
		}
		res.Created = created && err == nil
		return res, err
	}
}

func (e *Engine) join(ctx context.Context, a *roomActor, p *internal.Player, asHost bool) (JoinResult, error) {
	var res JoinResult
	err := e.do(ctx, a, func(room *internal.Room) error {
		if room.Status != internal.StatusPlaying {
			p.Lives = e.settings.StartingLives
		}
		r, err := joinPlayer(room, p, asHost, e.settings.MaxPlayers)
		if err != nil {
			if len(room.Players) == 0 {
				e.rooms.Destroy(a)
			}
			return err
		}
		res = r

		e.log.Info().
			Str("room", room.Id).
			Str("player", p.Id).
			Bool("reconnect", r.IsReconnect).
			Int("players", len(room.Players)).
			Msg("player joined")

		if r.IsReconnect {
			e.emit.SendTo(room.Id, p.Id, event(internal.EventReconnect, room.GameSnapshot(e.timers.Remaining(room.Id))))
		}
		e.emit.Broadcast(room.Id, event(internal.EventRoomUpdate, room.Snapshot()))
		return nil
	})
	return res, err
}

// Leave removes the player for good. The turn moves on if it was theirs.
func (e *Engine) Leave(ctx context.Context, roomID, playerID string) error {
	a, err := e.actor(roomID)
	if err != nil {
		return err
	}
	return e.do(ctx, a, func(room *internal.Room) error {
		if _, ok := removePlayer(room, playerID); !ok {
			return ErrPlayerNotFound
		}
		e.log.Info().Str("room", room.Id).Str("player", playerID).Msg("player left")
		e.afterDeparture(a, room, playerID)
		return nil
	})
}

// Disconnect records a dropped connection. Mid-game the player keeps their seat
// and may reconnect; otherwise it is the same as leaving.
func (e *Engine) Disconnect(ctx context.Context, roomID, playerID string) error {
	a, err := e.actor(roomID)
	if err != nil {
		return err
	}
	return e.do(ctx, a, func(room *internal.Room) error {
		if room.Status != internal.StatusPlaying {
			if _, ok := removePlayer(room, playerID); !ok {
				return ErrPlayerNotFound
			}
			e.afterDeparture(a, room, playerID)
			return nil
		}

		if !markDisconnected(room, playerID) {
			return ErrPlayerNotFound
		}
		e.log.Info().Str("room", room.Id).Str("player", playerID).Msg("player disconnected")

		if allDisconnected(room) {
			e.log.Info().Str("room", room.Id).Msg("everyone disconnected, ending game")
			e.finish(a, room, nil)
			return nil
		}
		if room.Mode.Multiplayer() && room.Turn.CurrentTurn == playerID {
			e.passTurn(a, room, "")
		}
		e.emit.Broadcast(room.Id, event(internal.EventRoomUpdate, room.Snapshot()))
		return nil
	})
}

// StartGame begins a game in the given mode. Only the host may start, from the
// lobby or after a finished game.
func (e *Engine) StartGame(ctx context.Context, roomID, callerID, mode string) error {
	m, ok := internal.ParseGameMode(mode)
	if !ok {
		return reject(UnknownMode)
	}
	a, err := e.actor(roomID)
	if err != nil {
		return err
	}
	return e.do(ctx, a, func(room *internal.Room) error {
		if room.Players[callerID] == nil {
			return ErrPlayerNotFound
		}
		if room.HostId != callerID {
			return reject(NotHost)
		}
		if room.Status == internal.StatusPlaying {
			return reject(GameInProgress)
		}
		if room.Status == internal.StatusOver {
			pruneDisconnected(room)
		}

		n := len(room.Players)
		switch {
		case m == internal.ModeSingle && n > 1:
			return reject(TooManyPlayers)
		case m == internal.ModeSingle && n < 1:
			return reject(NotEnoughPlayers)
		case m != internal.ModeSingle && n < internal.MinPlayersToStart:
			return reject(NotEnoughPlayers)
		}

		e.startGame(a, room, m)
		return nil
	})
}

// SubmitWord plays a word for the current turn. The dictionary lookup runs off
// the room loop; if the turn moved on meanwhile the result is discarded.
func (e *Engine) SubmitWord(ctx context.Context, roomID, playerID, word string) (SubmissionOutcome, error) {
	a, err := e.actor(roomID)
	if err != nil {
		return SubmissionOutcome{}, err
	}

	var pending submission
	err = e.do(ctx, a, func(room *internal.Room) error {
		s, err := e.precheckSubmission(a, room, playerID, word)
		pending = s
		return err
	})
	if err != nil {
		return SubmissionOutcome{}, err
	}

	isReal := e.oracle.IsRealWord(ctx, pending.word)
	if isReal {
		dctx, cancel := context.WithTimeout(ctx, e.settings.DefinitionTimeout)
		if def, ok := e.oracle.LookupDefinition(dctx, pending.word); ok {
			pending.definition = &def
		}
		cancel()
	}

	var out SubmissionOutcome
	err = e.do(ctx, a, func(room *internal.Room) error {
		o, err := e.resolveSubmission(a, room, pending, isReal)
		out = o
		return err
	})
	return out, err
}

// RequestDefinition sends the definition of word to the asking player only.
func (e *Engine) RequestDefinition(ctx context.Context, roomID, playerID, word string) (*internal.Definition, error) {
	a, err := e.actor(roomID)
	if err != nil {
		return nil, err
	}
	err = e.do(ctx, a, func(room *internal.Room) error {
		if room.Players[playerID] == nil {
			return ErrPlayerNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w := words.Normalize(word)
	if w == "" {
		return nil, reject(EmptyWord)
	}

	dctx, cancel := context.WithTimeout(ctx, e.settings.DefinitionTimeout)
	defer cancel()

	data := internal.DefinitionData{Word: w}
	if def, ok := e.oracle.LookupDefinition(dctx, w); ok {
		data.Definition = &def
	}
	e.emit.SendTo(roomID, playerID, event(internal.EventDefinition, data))
	return data.Definition, nil
}

// Snapshot is the full visible state of a room, as sent on reconnect.
func (e *Engine) Snapshot(ctx context.Context, roomID string) (internal.GameSnapshot, error) {
	a, err := e.actor(roomID)
	if err != nil {
		return internal.GameSnapshot{}, err
	}
	var snap internal.GameSnapshot
	err = e.do(ctx, a, func(room *internal.Room) error {
		snap = room.GameSnapshot(e.timers.Remaining(room.Id))
		return nil
	})
	return snap, err
}

// JoinableRoom returns a waiting room with a free seat, or "".
func (e *Engine) JoinableRoom() string {
	return e.rooms.Joinable(e.settings.MaxPlayers)
}

func (e *Engine) Rooms() []RoomSummary {
	return e.rooms.Summaries()
}

func (e *Engine) RoomExists(roomID string) bool {
	_, ok := e.rooms.Get(roomID)
	return ok
}
