package game

import (
	"slices"
	"time"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/words"
)

// =============================================================================
// GAME FLOW - TURN MANAGEMENT
// =============================================================================
//
// Everything in this file runs on the room's loop.

// startGame resets the players and deals the first turn.
func (e *Engine) startGame(a *roomActor, room *internal.Room, mode internal.GameMode) {
	// 1. Fresh per-game state for everyone seated
	for _, p := range room.Players {
		p.ResetGameState(e.settings.StartingLives)
	}

	// 2. Turn order follows join order
	order := slices.Clone(room.JoinOrder)
	room.Mode = mode
	room.Status = internal.StatusPlaying
	room.StartedAt = time.Now()
	room.EndedAt = time.Time{}
	room.Games++
	room.Turn = &internal.TurnState{
		TurnOrder:    order,
		CurrentTurn:  order[0],
		CurrentIndex: 0,
		UsedWords:    make(map[string]struct{}),
		Trapped:      make(map[string]bool),
		Round:        1,
	}

	e.log.Info().
		Str("room", room.Id).
		Str("mode", string(mode)).
		Strs("order", order).
		Int("game", room.Games).
		Msg("game started")

	// 3. Announce, then deal
	e.emit.Broadcast(room.Id, event(internal.EventGameStart, room.GameSnapshot(0)))
	e.beginTurn(a, room)
}

// turnBudget shrinks the turn time by one step per round, down to the minimum.
func (e *Engine) turnBudget(mode internal.GameMode, round int) time.Duration {
	base := e.settings.TurnDuration
	if mode == internal.ModeWordmaster {
		base = e.settings.WordmasterTurnDuration
	}
	d := base - time.Duration(max(round-1, 0))*e.settings.TurnDurationStep
	return max(d, e.settings.MinTurnDuration)
}

// beginTurn deals a wordpiece to the current player and arms their timer.
func (e *Engine) beginTurn(a *roomActor, room *internal.Room) {
	t := room.Turn
	hard := t.Trapped[t.CurrentTurn]
	delete(t.Trapped, t.CurrentTurn)

	t.Budget = e.turnBudget(room.Mode, t.Round)
	e.dealWordpiece(a, room, hard, t.Budget)
}

// dealWordpiece replaces the wordpiece and restarts the countdown at d. Every
// deal issues a new token, so results computed against the old piece go stale.
func (e *Engine) dealWordpiece(a *roomActor, room *internal.Room, hard bool, d time.Duration) {
	t := room.Turn
	t.Token++
	t.Wordpiece = words.Fragment(hard, e.rng)
	clear(t.UsedWords)
	t.Deadline = time.Now().Add(d)

	token := t.Token
	e.timers.StartTurnTimer(room.Id, d, func() {
		e.post(a, func(room *internal.Room) { e.onTimeout(a, room, token) })
	}, e.tickFunc(room.Id, token))

	e.log.Debug().
		Str("room", room.Id).
		Str("player", t.CurrentTurn).
		Str("wordpiece", t.Wordpiece).
		Bool("hard", hard).
		Dur("timer", d).
		Msg("wordpiece dealt")

	e.emit.Broadcast(room.Id, event(internal.EventNewWordpiece, internal.NewWordpieceData{
		Wordpiece:   t.Wordpiece,
		Timer:       seconds(d),
		CurrentTurn: t.CurrentTurn,
		Lives:       room.Lives(),
		Eliminated:  room.EliminatedIDs(),
		Round:       t.Round,
	}))
}

func (e *Engine) tickFunc(roomID string, token uint64) func(time.Duration) {
	if !e.settings.TimerTicks {
		return nil
	}
	return func(remaining time.Duration) {
		e.emit.Broadcast(roomID, event(internal.EventTimer, internal.TimerData{
			Remaining: seconds(remaining),
			Token:     token,
		}))
	}
}

// onTimeout costs the current player a life and moves on. Expiries from an
// earlier wordpiece are ignored.
func (e *Engine) onTimeout(a *roomActor, room *internal.Room, token uint64) {
	if room.Status != internal.StatusPlaying || room.Turn == nil || room.Turn.Token != token {
		e.log.Debug().Str("room", room.Id).Uint64("token", token).Msg("stale timeout ignored")
		return
	}

	id := room.Turn.CurrentTurn
	p := room.Players[id]
	eliminated := p.LoseLife()

	e.log.Info().
		Str("room", room.Id).
		Str("player", id).
		Int("lives", p.Lives).
		Bool("eliminated", eliminated).
		Msg("turn timed out")

	e.broadcastPlayerUpdate(room)
	if eliminated {
		e.passTurn(a, room, id)
		return
	}
	e.passTurn(a, room, "")
}

// passTurn hands the turn to the next connected player, dropping eliminatedID
// from the order first. Running out of players ends the game.
func (e *Engine) passTurn(a *roomActor, room *internal.Room, eliminatedID string) {
	t := room.Turn
	seq := NewSequencer(t)
	if eliminatedID != "" {
		seq.Remove(eliminatedID)
	}

	if !room.Mode.Multiplayer() {
		if seq.Len() == 0 {
			e.finish(a, room, nil)
			return
		}
		t.Round++
		e.beginTurn(a, room)
		return
	}

	if _, ok := e.advance(room); !ok {
		e.finish(a, room, seq.Winner())
		return
	}
	e.beginTurn(a, room)
}

// advance rotates the turn, skipping players whose connection dropped.
func (e *Engine) advance(room *internal.Room) (string, bool) {
	seq := NewSequencer(room.Turn)
	for range seq.Len() {
		next, ok := seq.Advance()
		if !ok {
			return "", false
		}
		if p := room.Players[next]; p != nil && p.IsConnected() {
			return next, true
		}
	}
	return seq.Current(), true
}

// afterDeparture settles the room once a player is gone for good.
func (e *Engine) afterDeparture(a *roomActor, room *internal.Room, playerID string) {
	if len(room.Players) == 0 {
		e.timers.Cancel(room.Id)
		e.rooms.Destroy(a)
		return
	}

	if room.Status == internal.StatusPlaying && room.Turn != nil {
		e.dropFromTurnOrder(a, room, playerID)
	}
	if room.Status == internal.StatusPlaying && allDisconnected(room) {
		e.finish(a, room, nil)
	}
	e.emit.Broadcast(room.Id, event(internal.EventRoomUpdate, room.Snapshot()))
}

func (e *Engine) dropFromTurnOrder(a *roomActor, room *internal.Room, playerID string) {
	seq := NewSequencer(room.Turn)
	wasCurrent := seq.Current() == playerID
	if !seq.Remove(playerID) {
		return
	}

	switch {
	case room.Mode.Multiplayer() && seq.Len() <= 1:
		e.finish(a, room, seq.Winner())
	case seq.Len() == 0:
		e.finish(a, room, nil)
	case wasCurrent:
		e.passTurn(a, room, "")
	}
}

// finish ends the game, publishes the final standings and schedules the
// return to the lobby.
func (e *Engine) finish(a *roomActor, room *internal.Room, winner *string) {
	e.timers.Cancel(room.Id)

	rounds := 0
	if room.Turn != nil {
		rounds = room.Turn.Round
	}
	room.Status = internal.StatusOver
	room.EndedAt = time.Now()
	room.Turn = nil

	result := CalculateFinalResults(room, winner, rounds)

	ev := e.log.Info().Str("room", room.Id).Int("rounds", rounds)
	if winner != nil {
		ev = ev.Str("winner", *winner)
	}
	ev.Msg("game over")

	e.emit.Broadcast(room.Id, event(internal.EventGameOver, internal.GameOverData{
		FinalScores: result.FinalScores,
		Winner:      winner,
		Result:      result,
	}))
	e.scheduleLobbyReset(a, room)
}

func (e *Engine) scheduleLobbyReset(a *roomActor, room *internal.Room) {
	game := room.Games
	e.timers.StartTurnTimer(room.Id, e.settings.LobbyResetDelay, func() {
		e.post(a, func(room *internal.Room) {
			if room.Status != internal.StatusOver || room.Games != game {
				return
			}
			e.returnToLobby(a, room)
		})
	}, nil)
}

// returnToLobby drops players who never came back and reopens the room.
func (e *Engine) returnToLobby(a *roomActor, room *internal.Room) {
	dropped := pruneDisconnected(room)
	if len(room.Players) == 0 {
		e.log.Info().Str("room", room.Id).Msg("room idle after game, closing")
		e.rooms.Destroy(a)
		return
	}

	resetToLobby(room, e.settings.StartingLives)
	e.log.Info().
		Str("room", room.Id).
		Strs("dropped", dropped).
		Int("players", len(room.Players)).
		Msg("room back in lobby")
	e.emit.Broadcast(room.Id, event(internal.EventRoomUpdate, room.Snapshot()))
}

func (e *Engine) broadcastPlayerUpdate(room *internal.Room) {
	e.emit.Broadcast(room.Id, event(internal.EventPlayerUpdate, internal.PlayerUpdateData{
		Lives:  room.Lives(),
		Scores: room.Scores(),
	}))
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
