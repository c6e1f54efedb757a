package game

import (
	"slices"

	"github.com/scythe504/wordbomb-backend/internal"
)

// Sequencer owns the turn order of a game. It only moves pointers; dealing
// wordpieces and arming timers is the engine's job.
type Sequencer struct {
	t *internal.TurnState
}

func NewSequencer(t *internal.TurnState) Sequencer {
	return Sequencer{t: t}
}

func (s Sequencer) Current() string {
	return s.t.CurrentTurn
}

func (s Sequencer) Order() []string {
	return slices.Clone(s.t.TurnOrder)
}

func (s Sequencer) Len() int {
	return len(s.t.TurnOrder)
}

func (s Sequencer) Contains(id string) bool {
	return slices.Contains(s.t.TurnOrder, id)
}

// Advance moves to the id after the current index, wrapping around and counting
// a round on every wrap. With one player or none left it reports false: the game is over.
func (s Sequencer) Advance() (string, bool) {
	order := s.t.TurnOrder
	if len(order) <= 1 {
		return "", false
	}

	prev := s.t.CurrentIndex
	next := (prev + 1) % len(order)
	if next <= prev {
		s.t.Round++
	}

	s.t.CurrentIndex = next
	s.t.CurrentTurn = order[next]
	return s.t.CurrentTurn, true
}

// Remove drops id from the order without rotating. When id held the turn the
// caller must Advance; the index is stepped back so Advance lands on the player
// who followed the removed one.
func (s Sequencer) Remove(id string) bool {
	i := slices.Index(s.t.TurnOrder, id)
	if i < 0 {
		return false
	}

	s.t.TurnOrder = slices.Delete(s.t.TurnOrder, i, i+1)
	if i <= s.t.CurrentIndex {
		s.t.CurrentIndex--
	}
	if s.t.CurrentTurn == id {
		s.t.CurrentTurn = ""
	}
	return true
}

// Reverse flips the order in place. The index follows the current player to
// their mirrored seat, so the next Advance lands on whoever preceded them
// before the flip. An index of -1 (current player removed) is kept.
func (s Sequencer) Reverse() {
	slices.Reverse(s.t.TurnOrder)
	if s.t.CurrentIndex >= 0 && s.t.CurrentIndex < len(s.t.TurnOrder) {
		s.t.CurrentIndex = len(s.t.TurnOrder) - 1 - s.t.CurrentIndex
	}
}

// Winner is the last id standing, or nil when nobody is left.
func (s Sequencer) Winner() *string {
	if len(s.t.TurnOrder) != 1 {
		return nil
	}
	w := s.t.TurnOrder[0]
	return &w
}
