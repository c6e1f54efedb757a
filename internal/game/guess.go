package game

import (
	"strings"
	"unicode/utf8"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/words"
)

// =============================================================================
// WORD SUBMISSIONS
// =============================================================================

type SubmissionOutcome struct {
	Word       string                `json:"word"`
	Points     int                   `json:"points"`
	Definition *internal.Definition  `json:"definition,omitempty"`
	PowerUp    *internal.PowerUpKind `json:"powerUp,omitempty"`
}

// submission is a word that passed the cheap checks and is waiting on the dictionary.
type submission struct {
	playerID   string
	word       string
	token      uint64
	definition *internal.Definition
}

// Score awards a point for every letter beyond the wordpiece, never less than one.
func Score(word, wordpiece string) int {
	return max(1, utf8.RuneCountInString(word)-utf8.RuneCountInString(wordpiece)+1)
}

// checkWord runs the checks that need no dictionary: the fragment must appear
// in the word and the word must be new for this wordpiece.
func checkWord(t *internal.TurnState, word string) error {
	if !strings.Contains(word, t.Wordpiece) {
		return reject(MissingFragment)
	}
	if _, used := t.UsedWords[word]; used {
		return reject(AlreadyUsed)
	}
	return nil
}

// checkTurn rejects players who may not submit right now. Single player games
// have no turn to wait for.
func checkTurn(room *internal.Room, playerID string) error {
	if room.Status != internal.StatusPlaying || room.Turn == nil {
		return reject(GameNotStarted)
	}
	p := room.Players[playerID]
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.Eliminated() {
		return reject(NotYourTurn)
	}
	if room.Mode.Multiplayer() && room.Turn.CurrentTurn != playerID {
		return reject(NotYourTurn)
	}
	return nil
}

func (e *Engine) precheckSubmission(a *roomActor, room *internal.Room, playerID, raw string) (submission, error) {
	if err := checkTurn(room, playerID); err != nil {
		return submission{}, err
	}

	word := words.Normalize(raw)
	if word == "" {
		return submission{}, reject(EmptyWord)
	}
	if err := checkWord(room.Turn, word); err != nil {
		e.penalize(a, room, playerID, word, err)
		return submission{}, err
	}

	return submission{
		playerID: playerID,
		word:     word,
		token:    room.Turn.Token,
	}, nil
}

// resolveSubmission applies the dictionary verdict, unless the turn it was
// checked against is already over.
func (e *Engine) resolveSubmission(a *roomActor, room *internal.Room, s submission, isReal bool) (SubmissionOutcome, error) {
	if room.Status != internal.StatusPlaying || room.Turn == nil || room.Turn.Token != s.token {
		e.log.Debug().Str("room", room.Id).Str("player", s.playerID).Str("word", s.word).Msg("stale submission discarded")
		return SubmissionOutcome{}, reject(StaleSubmission)
	}
	if err := checkTurn(room, s.playerID); err != nil {
		return SubmissionOutcome{}, reject(StaleSubmission)
	}
	if err := checkWord(room.Turn, s.word); err != nil {
		e.penalize(a, room, s.playerID, s.word, err)
		return SubmissionOutcome{}, err
	}
	if !isReal {
		err := reject(NotAWord)
		e.penalize(a, room, s.playerID, s.word, err)
		return SubmissionOutcome{}, err
	}

	return e.accept(a, room, s), nil
}

func (e *Engine) accept(a *roomActor, room *internal.Room, s submission) SubmissionOutcome {
	t := room.Turn
	p := room.Players[s.playerID]

	t.UsedWords[s.word] = struct{}{}
	points := Score(s.word, t.Wordpiece)
	p.AddScore(points)
	p.RecordWord(s.word)
	granted := e.rollPowerUp(p, s.word)

	e.log.Info().
		Str("room", room.Id).
		Str("player", p.Id).
		Str("word", s.word).
		Str("wordpiece", t.Wordpiece).
		Int("points", points).
		Msg("word accepted")

	out := SubmissionOutcome{
		Word:       s.word,
		Points:     points,
		Definition: s.definition,
		PowerUp:    granted,
	}
	e.emit.Broadcast(room.Id, event(internal.EventSubmissionResult, internal.SubmissionResultData{
		PlayerID:   p.Id,
		Word:       s.word,
		Points:     points,
		Scores:     room.Scores(),
		Definition: s.definition,
		PowerUp:    granted,
	}))

	e.passTurn(a, room, "")
	return out
}

// penalize charges a life for a bad word when the rejection reason carries a
// penalty. In multiplayer the turn passes; a single player keeps the same
// wordpiece until it runs out or they do.
func (e *Engine) penalize(a *roomActor, room *internal.Room, playerID, word string, cause error) {
	reason, _ := ReasonOf(cause)
	if !reason.penalized() {
		return
	}

	p := room.Players[playerID]
	p.WordsRejected++
	eliminated := p.LoseLife()

	e.log.Info().
		Str("room", room.Id).
		Str("player", playerID).
		Str("word", word).
		Str("reason", string(reason)).
		Int("lives", p.Lives).
		Msg("word rejected")

	e.broadcastPlayerUpdate(room)

	switch {
	case eliminated:
		e.passTurn(a, room, playerID)
	case room.Mode.Multiplayer():
		e.passTurn(a, room, "")
	}
}

// rollPowerUp may grant a random power-up for a long word.
func (e *Engine) rollPowerUp(p *internal.Player, word string) *internal.PowerUpKind {
	if utf8.RuneCountInString(word) < e.settings.PowerUpMinLength {
		return nil
	}
	if e.rng.Float64() >= e.settings.PowerUpChance {
		return nil
	}
	kind := internal.PowerUpKinds[e.rng.IntN(len(internal.PowerUpKinds))]
	p.PowerUps[kind]++
	return &kind
}
