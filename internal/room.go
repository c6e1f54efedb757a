package internal

import (
	"slices"
	"sort"
	"time"
)

type RoomSnapshot struct {
	ID      string           `json:"id"`
	Mode    GameMode         `json:"mode,omitempty"`
	Status  RoomStatus       `json:"status"`
	HostID  string           `json:"hostId"`
	Players []PlayerSnapshot `json:"players"`
}

type GameSnapshot struct {
	Room        RoomSnapshot   `json:"room"`
	TurnOrder   []string       `json:"turnOrder"`
	CurrentTurn string         `json:"currentTurn"`
	Wordpiece   string         `json:"wordpiece"`
	Round       int            `json:"round"`
	Timer       int            `json:"timer"`
	Lives       map[string]int `json:"lives"`
	Scores      map[string]int `json:"scores"`
	Eliminated  []string       `json:"eliminated"`
	UsedWords   []string       `json:"usedWords"`
}

func NewRoom(id string) *Room {
	return &Room{
		Id:        id,
		Players:   make(map[string]*Player),
		JoinOrder: make([]string, 0, MaxPlayersPerRoom),
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}
}

// Methods (Room Struct)
func (r *Room) GetPlayerCount() int {
	return len(r.Players)
}

func (r *Room) ConnectedCount() int {
	count := 0
	for _, player := range r.Players {
		if player.IsConnected() {
			count++
		}
	}
	return count
}

// OrderedPlayers returns the players in join order.
func (r *Room) OrderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.JoinOrder))
	for _, id := range r.JoinOrder {
		if p := r.Players[id]; p != nil {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) Scores() map[string]int {
	scores := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		scores[id] = p.Score
	}
	return scores
}

func (r *Room) Lives() map[string]int {
	lives := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		lives[id] = p.Lives
	}
	return lives
}

// EliminatedIDs lists eliminated players in join order.
func (r *Room) EliminatedIDs() []string {
	out := make([]string, 0)
	for _, p := range r.OrderedPlayers() {
		if p.Eliminated() {
			out = append(out, p.Id)
		}
	}
	return out
}

func (r *Room) Snapshot() RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.OrderedPlayers() {
		players = append(players, p.Snapshot(r.HostId))
	}
	return RoomSnapshot{
		ID:      r.Id,
		Mode:    r.Mode,
		Status:  r.Status,
		HostID:  r.HostId,
		Players: players,
	}
}

func (r *Room) GameSnapshot(remaining time.Duration) GameSnapshot {
	snap := GameSnapshot{
		Room:       r.Snapshot(),
		Lives:      r.Lives(),
		Scores:     r.Scores(),
		Eliminated: r.EliminatedIDs(),
		Timer:      int(remaining.Round(time.Second) / time.Second),
		TurnOrder:  []string{},
		UsedWords:  []string{},
	}
	if t := r.Turn; t != nil {
		snap.TurnOrder = slices.Clone(t.TurnOrder)
		snap.CurrentTurn = t.CurrentTurn
		snap.Wordpiece = t.Wordpiece
		snap.Round = t.Round
		for w := range t.UsedWords {
			snap.UsedWords = append(snap.UsedWords, w)
		}
		sort.Strings(snap.UsedWords)
	}
	return snap
}
