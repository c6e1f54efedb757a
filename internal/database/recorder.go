package database

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scythe504/wordbomb-backend/internal"
)

const recordTimeout = 5 * time.Second

type ResultStore interface {
	RecordGame(ctx context.Context, result internal.GameResult) error
}

// Recorder listens to room events and saves every finished game. Writes happen
// in the background so a slow database never holds up a room.
type Recorder struct {
	store ResultStore
	log   zerolog.Logger
	wg    sync.WaitGroup
}

func NewRecorder(store ResultStore, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, log: log.With().Str("component", "recorder").Logger()}
}

func (r *Recorder) Broadcast(roomID string, msg internal.Message[any]) {
	if msg.Type != internal.EventGameOver {
		return
	}
	data, ok := msg.Data.(internal.GameOverData)
	if !ok {
		return
	}

	r.wg.Add(1)
	go func(result internal.GameResult) {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.store.RecordGame(ctx, result); err != nil {
			r.log.Error().Err(err).Str("room", roomID).Str("game", result.Id).Msg("record game")
			return
		}
		r.log.Debug().Str("room", roomID).Str("game", result.Id).Msg("game recorded")
	}(data.Result)
}

func (r *Recorder) SendTo(string, string, internal.Message[any]) {}

// Wait blocks until every pending write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
