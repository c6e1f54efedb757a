package game

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomClosed     = errors.New("room closed")
	ErrRoomCorrupted  = errors.New("room state corrupted")

	// ErrValidation matches every *ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")
)

type Reason string

const (
	NotYourTurn     Reason = "not_your_turn"
	MissingFragment Reason = "missing_fragment"
	AlreadyUsed     Reason = "already_used"
	NotAWord        Reason = "not_a_word"
	MissingPowerUp  Reason = "missing_power_up"
	MissingTarget   Reason = "missing_target"
	UnknownPowerUp  Reason = "unknown_power_up"

	InvalidTarget    Reason = "invalid_target"
	NotHost          Reason = "not_host"
	NotEnoughPlayers Reason = "not_enough_players"
	TooManyPlayers   Reason = "too_many_players"
	GameInProgress   Reason = "game_in_progress"
	GameNotStarted   Reason = "game_not_started"
	RoomFull         Reason = "room_full"
	StaleSubmission  Reason = "stale_submission"
	UnknownMode      Reason = "unknown_mode"
	EmptyWord        Reason = "empty_word"
)

var reasonMessages = map[Reason]string{
	NotYourTurn:      "it is not your turn",
	MissingFragment:  "word does not contain the wordpiece",
	AlreadyUsed:      "word was already used for this wordpiece",
	NotAWord:         "not a real word",
	MissingPowerUp:   "you do not have that power-up",
	MissingTarget:    "that power-up needs a target",
	UnknownPowerUp:   "unknown power-up",
	InvalidTarget:    "invalid power-up target",
	NotHost:          "only the host can do that",
	NotEnoughPlayers: "not enough players to start",
	TooManyPlayers:   "single player mode needs exactly one player",
	GameInProgress:   "a game is already in progress",
	GameNotStarted:   "the game has not started",
	RoomFull:         "room is full",
	StaleSubmission:  "the turn ended before the word was checked",
	UnknownMode:      "unknown game mode",
	EmptyWord:        "type a word",
}

// ValidationError is a rejected action. It never leaves shared state mutated
// beyond the documented penalties.
type ValidationError struct {
	Reason Reason
}

func reject(r Reason) error {
	return &ValidationError{Reason: r}
}

func (e *ValidationError) Error() string {
	if msg, ok := reasonMessages[e.Reason]; ok {
		return msg
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ReasonOf extracts the rejection reason from err, if it is a validation error.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// penalized reports whether a rejection costs the current player a life.
func (r Reason) penalized() bool {
	switch r {
	case MissingFragment, AlreadyUsed, NotAWord:
		return true
	}
	return false
}
