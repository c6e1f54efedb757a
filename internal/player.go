package internal

import (
	"maps"
	"time"
	"unicode/utf8"
)

type PlayerSnapshot struct {
	ID            string              `json:"id"`
	DisplayName   string              `json:"display_name"`
	Color         string              `json:"color"`
	AvatarRef     string              `json:"avatar_ref"`
	IsConnected   bool                `json:"is_connected"`
	IsHost        bool                `json:"is_host"`
	Score         int                 `json:"score"`
	Lives         int                 `json:"lives"`
	Eliminated    bool                `json:"eliminated"`
	PowerUps      map[PowerUpKind]int `json:"power_ups"`
	WordsAccepted int                 `json:"words_accepted"`
}

func NewPlayer(id, displayName, color, avatarRef string) *Player {
	return &Player{
		Id:          id,
		DisplayName: displayName,
		Color:       color,
		AvatarRef:   avatarRef,
		Connection:  Connected,
		JoinedAt:    time.Now(),
		Lives:       DefaultStartingLives,
		PowerUps:    make(map[PowerUpKind]int),
	}
}

// Eliminated is derived: out of lives or removed from play.
func (p *Player) Eliminated() bool {
	return p.Lives <= 0 || p.Removed
}

func (p *Player) IsConnected() bool {
	return p.Connection == Connected
}

// ResetGameState prepares the player for a fresh game.
func (p *Player) ResetGameState(lives int) {
	p.Score = 0
	p.Lives = lives
	p.PowerUps = make(map[PowerUpKind]int)
	p.Removed = false
	p.WordsAccepted = 0
	p.WordsRejected = 0
	p.LongestWord = ""
}

// LoseLife takes one life and clamps at zero. It reports whether the player is now eliminated.
func (p *Player) LoseLife() bool {
	if p.Lives > 0 {
		p.Lives--
	}
	return p.Eliminated()
}

// AddScore never lowers the score.
func (p *Player) AddScore(points int) {
	if points > 0 {
		p.Score += points
	}
}

func (p *Player) RecordWord(word string) {
	p.WordsAccepted++
	if utf8.RuneCountInString(word) > utf8.RuneCountInString(p.LongestWord) {
		p.LongestWord = word
	}
}

func (p *Player) Snapshot(hostID string) PlayerSnapshot {
	return PlayerSnapshot{
		ID:            p.Id,
		DisplayName:   p.DisplayName,
		Color:         p.Color,
		AvatarRef:     p.AvatarRef,
		IsConnected:   p.IsConnected(),
		IsHost:        p.Id == hostID,
		Score:         p.Score,
		Lives:         p.Lives,
		Eliminated:    p.Eliminated(),
		PowerUps:      maps.Clone(p.PowerUps),
		WordsAccepted: p.WordsAccepted,
	}
}
