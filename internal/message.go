package internal

import "encoding/json"

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Outbound event types.
const (
	EventJoined           = "room:joined"
	EventRoomUpdate       = "room:update"
	EventGameStart        = "game:start"
	EventNewWordpiece     = "game:new_wordpiece"
	EventSubmissionResult = "game:submission_result"
	EventPlayerUpdate     = "game:player_update"
	EventPowerUpUsed      = "game:power_up_used"
	EventGameOver         = "game:over"
	EventReconnect        = "game:reconnect"
	EventTimer            = "game:timer"
	EventDefinition       = "game:definition"
	EventError            = "error"
)

// Inbound message types.
const (
	ActionStartGame         = "start_game"
	ActionSubmitWord        = "submit_word"
	ActionUsePowerUp        = "use_power_up"
	ActionRequestDefinition = "request_definition"
	ActionLeave             = "leave"
)

type InboundMessage = Message[json.RawMessage]

type JoinedData struct {
	PlayerID    string       `json:"playerId"`
	RoomID      string       `json:"roomId"`
	IsReconnect bool         `json:"isReconnect"`
	Room        RoomSnapshot `json:"room"`
}

type StartGameData struct {
	Mode string `json:"mode"`
}

type SubmitWordData struct {
	Word string `json:"word"`
}

type UsePowerUpData struct {
	Kind     string `json:"kind"`
	TargetID string `json:"targetId,omitempty"`
}

type RequestDefinitionData struct {
	Word string `json:"word"`
}

type ErrorData struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type NewWordpieceData struct {
	Wordpiece   string         `json:"wordpiece"`
	Timer       int            `json:"timer"`
	CurrentTurn string         `json:"currentTurn"`
	Lives       map[string]int `json:"lives"`
	Eliminated  []string       `json:"eliminated"`
	Round       int            `json:"round"`
}

type SubmissionResultData struct {
	PlayerID   string         `json:"playerId"`
	Word       string         `json:"word"`
	Points     int            `json:"points"`
	Scores     map[string]int `json:"scores"`
	Definition *Definition    `json:"definition,omitempty"`
	PowerUp    *PowerUpKind   `json:"powerUp,omitempty"`
}

type PlayerUpdateData struct {
	Lives  map[string]int `json:"lives"`
	Scores map[string]int `json:"scores"`
}

type PowerUpUsedData struct {
	Kind        PowerUpKind         `json:"kind"`
	Source      string              `json:"source"`
	Target      string              `json:"target,omitempty"`
	PowerUps    map[PowerUpKind]int `json:"powerUps"`
	TurnOrder   []string            `json:"turnOrder,omitempty"`
	CurrentTurn string              `json:"currentTurn,omitempty"`
}

type GameOverData struct {
	FinalScores []FinalScore `json:"finalScores"`
	Winner      *string      `json:"winner"`
	Result      GameResult   `json:"result"`
}

type TimerData struct {
	Remaining int    `json:"remaining"`
	Token     uint64 `json:"-"`
}

type DefinitionData struct {
	Word       string      `json:"word"`
	Definition *Definition `json:"definition"`
}
