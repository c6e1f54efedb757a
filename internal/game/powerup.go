package game

import (
	"context"
	"maps"
	"time"

	"github.com/scythe504/wordbomb-backend/internal"
)

// =============================================================================
// POWER-UPS
// =============================================================================

type PowerUpOutcome struct {
	Kind        internal.PowerUpKind `json:"kind"`
	Remaining   int                  `json:"remaining"`
	TurnOrder   []string             `json:"turnOrder"`
	CurrentTurn string               `json:"currentTurn"`
}

// UsePowerUp spends one power-up of the given kind. Outside single player games
// it may only be used on your own turn. Once the player is found eligible the
// power-up is spent, even if the target turns out to be unusable.
func (e *Engine) UsePowerUp(ctx context.Context, roomID, playerID, kind, targetID string) (PowerUpOutcome, error) {
	k, ok := internal.ParsePowerUpKind(kind)
	if !ok {
		return PowerUpOutcome{}, reject(UnknownPowerUp)
	}
	a, err := e.actor(roomID)
	if err != nil {
		return PowerUpOutcome{}, err
	}

	var out PowerUpOutcome
	err = e.do(ctx, a, func(room *internal.Room) error {
		if err := checkTurn(room, playerID); err != nil {
			return err
		}
		p := room.Players[playerID]
		if p.PowerUps[k] <= 0 {
			return reject(MissingPowerUp)
		}
		p.PowerUps[k]--
		if p.PowerUps[k] == 0 {
			delete(p.PowerUps, k)
		}

		if err := e.applyPowerUp(a, room, p, k, targetID); err != nil {
			// Spent anyway; let everyone see the new count.
			e.emit.Broadcast(room.Id, event(internal.EventRoomUpdate, room.Snapshot()))
			return err
		}

		out = PowerUpOutcome{Kind: k, Remaining: p.PowerUps[k]}
		if room.Turn != nil {
			out.TurnOrder = NewSequencer(room.Turn).Order()
			out.CurrentTurn = room.Turn.CurrentTurn
		}
		return nil
	})
	return out, err
}

func (e *Engine) applyPowerUp(a *roomActor, room *internal.Room, p *internal.Player, k internal.PowerUpKind, targetID string) error {
	t := room.Turn
	seq := NewSequencer(t)

	used := internal.PowerUpUsedData{
		Kind:     k,
		Source:   p.Id,
		Target:   targetID,
		PowerUps: maps.Clone(p.PowerUps),
	}

	switch k {
	case internal.PowerUpReverseTurnOrder:
		seq.Reverse()
		if room.Mode.Multiplayer() {
			e.advance(room)
		}
		used.Target = ""
		used.TurnOrder = seq.Order()
		used.CurrentTurn = t.CurrentTurn
		e.announcePowerUp(room, used)
		if room.Mode.Multiplayer() {
			e.beginTurn(a, room)
		}

	case internal.PowerUpTrap:
		if targetID == "" {
			return reject(MissingTarget)
		}
		target := room.Players[targetID]
		if target == nil || target.Id == p.Id || target.Eliminated() || !seq.Contains(targetID) {
			return reject(InvalidTarget)
		}
		t.Trapped[targetID] = true
		e.announcePowerUp(room, used)

	case internal.PowerUpExtraWordpiece:
		target := room.Players[targetID]
		if targetID == "" || target == nil {
			return reject(MissingTarget)
		}
		if target.Eliminated() {
			return reject(InvalidTarget)
		}
		e.announcePowerUp(room, used)
		// Same turn, same deadline, easier piece.
		e.dealWordpiece(a, room, false, max(time.Until(t.Deadline), 0))
	}

	e.log.Info().
		Str("room", room.Id).
		Str("player", p.Id).
		Str("kind", string(k)).
		Str("target", targetID).
		Msg("power-up used")
	return nil
}

func (e *Engine) announcePowerUp(room *internal.Room, data internal.PowerUpUsedData) {
	e.emit.Broadcast(room.Id, event(internal.EventPowerUpUsed, data))
}
