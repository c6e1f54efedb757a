package game

import "github.com/scythe504/wordbomb-backend/internal"

// Emitter is the engine's only side effect: outbound events for a room or one player in it.
// Implementations must not block the caller for long; they run on the room's loop.
type Emitter interface {
	Broadcast(roomID string, msg internal.Message[any])
	SendTo(roomID, playerID string, msg internal.Message[any])
}

// Emitters fans every event out to each emitter in order.
type Emitters []Emitter

func (es Emitters) Broadcast(roomID string, msg internal.Message[any]) {
	for _, e := range es {
		e.Broadcast(roomID, msg)
	}
}

func (es Emitters) SendTo(roomID, playerID string, msg internal.Message[any]) {
	for _, e := range es {
		e.SendTo(roomID, playerID, msg)
	}
}

type NopEmitter struct{}

func (NopEmitter) Broadcast(string, internal.Message[any])      {}
func (NopEmitter) SendTo(string, string, internal.Message[any]) {}

func event(kind string, data any) internal.Message[any] {
	return internal.Message[any]{Type: kind, Data: data}
}
