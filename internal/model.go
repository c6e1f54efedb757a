package internal

import (
	"strings"
	"time"
)

const (
	DefaultStartingLives     = 3
	DefaultTurnDuration      = 15 * time.Second
	WordmasterTurnDuration   = 25 * time.Second
	MinTurnDuration          = 5 * time.Second
	TurnDurationStep         = 1 * time.Second
	LobbyResetDelay          = 30 * time.Second
	MaxPlayersPerRoom        = 8
	MinPlayersToStart        = 2
	PowerUpChance            = 0.25
	PowerUpMinWordLength     = 8
	DefaultDefinitionTimeout = 1500 * time.Millisecond
)

type GameMode string

const (
	ModeSingle     GameMode = "single"
	ModeLocal      GameMode = "local"
	ModeOnline     GameMode = "online"
	ModeWordmaster GameMode = "wordmaster"
)

// ParseGameMode accepts the wire spelling of a mode, case-insensitively.
func ParseGameMode(s string) (GameMode, bool) {
	switch m := GameMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingle, ModeLocal, ModeOnline, ModeWordmaster:
		return m, true
	}
	return "", false
}

// Multiplayer reports whether turns rotate between players in this mode.
func (m GameMode) Multiplayer() bool {
	return m != ModeSingle
}

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
	StatusOver    RoomStatus = "over"
)

type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
)

type PowerUpKind string

const (
	PowerUpReverseTurnOrder PowerUpKind = "reverse_turn_order"
	PowerUpTrap             PowerUpKind = "trap"
	PowerUpExtraWordpiece   PowerUpKind = "extra_wordpiece"
)

// PowerUpKinds is the grant table; a granted power-up is drawn uniformly from it.
var PowerUpKinds = []PowerUpKind{
	PowerUpReverseTurnOrder,
	PowerUpTrap,
	PowerUpExtraWordpiece,
}

func ParsePowerUpKind(s string) (PowerUpKind, bool) {
	switch k := PowerUpKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PowerUpReverseTurnOrder, PowerUpTrap, PowerUpExtraWordpiece:
		return k, true
	}
	return "", false
}

// Targeted reports whether the power-up needs a target player.
func (k PowerUpKind) Targeted() bool {
	return k == PowerUpTrap || k == PowerUpExtraWordpiece
}

type Definition struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"part_of_speech,omitempty"`
	Meaning      string `json:"meaning"`
	Source       string `json:"source,omitempty"`
}

type Room struct {
	Id      string
	Players map[string]*Player

	// JoinOrder lists player ids by first join; it seeds the turn order and host succession.
	JoinOrder []string

	// Game State
	Mode   GameMode   `json:"mode"`
	Status RoomStatus `json:"status"`
	HostId string     `json:"host_id"`
	Turn   *TurnState `json:"turn,omitempty"`

	// Bookkeeping
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Games     int       `json:"games"`
}

type TurnState struct {
	TurnOrder    []string `json:"turn_order"`
	CurrentTurn  string   `json:"current_turn"`
	CurrentIndex int      `json:"current_index"`

	Wordpiece string              `json:"wordpiece"`
	UsedWords map[string]struct{} `json:"-"`

	// Round advances once per full rotation of TurnOrder.
	Round int `json:"round"`

	// Trapped holds players whose next wordpiece comes from the hard pool.
	Trapped map[string]bool `json:"-"`

	// Token changes every time a new wordpiece is dealt; async results and
	// timer expiries carry the token they were issued under.
	Token uint64 `json:"-"`

	Deadline time.Time     `json:"deadline"`
	Budget   time.Duration `json:"budget"`
}

type Player struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	AvatarRef   string `json:"avatar_ref"`

	Connection ConnectionState `json:"connection"`
	JoinedAt   time.Time       `json:"joined_at"`

	// Game state
	Score    int                 `json:"score"`
	Lives    int                 `json:"lives"`
	PowerUps map[PowerUpKind]int `json:"power_ups"`
	Removed  bool                `json:"removed"`

	// Statistics
	WordsAccepted int    `json:"words_accepted"`
	WordsRejected int    `json:"words_rejected"`
	LongestWord   string `json:"longest_word"`
}

type FinalScore struct {
	PlayerID      string `json:"player_id"`
	DisplayName   string `json:"display_name"`
	Score         int    `json:"score"`
	Lives         int    `json:"lives"`
	Position      int    `json:"position"`
	WordsAccepted int    `json:"words_accepted"`
	LongestWord   string `json:"longest_word,omitempty"`
}

type GameResult struct {
	Id          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	Mode        GameMode     `json:"mode"`
	Winner      *string      `json:"winner"`
	FinalScores []FinalScore `json:"final_scores"`
	Rounds      int          `json:"rounds"`
	StartedAt   time.Time    `json:"started_at"`
	EndedAt     time.Time    `json:"ended_at"`
}

type LeaderboardEntry struct {
	DisplayName string `json:"display_name"`
	TotalScore  int    `json:"total_score"`
	Games       int    `json:"games"`
	Wins        int    `json:"wins"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
