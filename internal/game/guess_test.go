package game

import (
	"context"
	"testing"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		word, wordpiece string
		want            int
	}{
		{"running", "run", 5},
		{"running", "ing", 5},
		{"run", "run", 1},
		{"interesting", "ing", 9},
		{"naïve", "ve", 4},
		{"ab", "abcd", 1},
	}
	for _, tt := range tests {
		t.Run(tt.word+"/"+tt.wordpiece, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.word, tt.wordpiece))
		})
	}
}

func TestCheckWord(t *testing.T) {
	turn := &internal.TurnState{
		Wordpiece: "ing",
		UsedWords: map[string]struct{}{"running": {}},
	}

	assert.NoError(t, checkWord(turn, "singing"))

	_, ok := ReasonOf(checkWord(turn, "bread"))
	assert.True(t, ok)
	reason, _ := ReasonOf(checkWord(turn, "bread"))
	assert.Equal(t, MissingFragment, reason)

	reason, _ = ReasonOf(checkWord(turn, "running"))
	assert.Equal(t, AlreadyUsed, reason)
}

func TestReasonPenalties(t *testing.T) {
	for _, r := range []Reason{MissingFragment, AlreadyUsed, NotAWord} {
		assert.True(t, r.penalized(), r)
	}
	for _, r := range []Reason{NotYourTurn, EmptyWord, StaleSubmission, MissingPowerUp} {
		assert.False(t, r.penalized(), r)
	}
}

func TestPenalizeOnlyChargesPenalizedReasons(t *testing.T) {
	h := newHarness(t, testSettings())
	ctx := context.Background()
	h.room("r1", "a", "b")
	h.start("r1", "a", internal.ModeOnline)

	a, err := h.engine.actor("r1")
	require.NoError(t, err)
	penalize := func(r Reason) {
		require.NoError(t, h.engine.do(ctx, a, func(room *internal.Room) error {
			h.engine.penalize(a, room, "a", "word", reject(r))
			return nil
		}))
	}

	penalize(StaleSubmission)
	snap := h.snapshot("r1")
	assert.Equal(t, 3, snap.Lives["a"])
	assert.Equal(t, "a", snap.CurrentTurn)

	penalize(NotAWord)
	snap = h.snapshot("r1")
	assert.Equal(t, 2, snap.Lives["a"])
	assert.Equal(t, "b", snap.CurrentTurn)
}

func TestValidationError(t *testing.T) {
	err := reject(NotHost)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, "only the host can do that", err.Error())

	_, ok := ReasonOf(ErrRoomNotFound)
	assert.False(t, ok)
}
