package game

import (
	"slices"
	"time"

	"github.com/scythe504/wordbomb-backend/internal"
)

// =============================================================================
// PLAYER REGISTRY
// =============================================================================

// JoinResult describes how a player entered a room.
type JoinResult struct {
	Created     bool                  `json:"created"`
	IsReconnect bool                  `json:"isReconnect"`
	Room        internal.RoomSnapshot `json:"room"`
}

// joinPlayer seats p in the room. While a game is running only players already
// in the room may come back, and they keep their score, lives and power-ups.
func joinPlayer(room *internal.Room, p *internal.Player, asHost bool, maxPlayers int) (JoinResult, error) {
	existing := room.Players[p.Id]

	if room.Status == internal.StatusPlaying {
		if existing == nil {
			return JoinResult{}, reject(GameInProgress)
		}
		existing.Connection = internal.Connected
		return JoinResult{IsReconnect: true, Room: room.Snapshot()}, nil
	}

	if existing == nil && len(room.Players) >= maxPlayers {
		return JoinResult{}, reject(RoomFull)
	}

	if existing != nil {
		p.JoinedAt = existing.JoinedAt
	} else {
		room.JoinOrder = append(room.JoinOrder, p.Id)
	}
	p.Connection = internal.Connected
	room.Players[p.Id] = p

	if room.HostId == "" || (asHost && room.Players[room.HostId] == nil) {
		room.HostId = p.Id
	}

	return JoinResult{Room: room.Snapshot()}, nil
}

// removePlayer takes the player out of the room entirely. It does not touch the
// turn order; the engine does that so it can rotate the turn if needed.
func removePlayer(room *internal.Room, playerID string) (*internal.Player, bool) {
	p, ok := room.Players[playerID]
	if !ok {
		return nil, false
	}

	delete(room.Players, playerID)
	room.JoinOrder = slices.DeleteFunc(room.JoinOrder, func(id string) bool {
		return id == playerID
	})
	p.Removed = true

	if room.HostId == playerID {
		reassignHost(room)
	}
	return p, true
}

// reassignHost hands the room to the longest-seated connected player, falling
// back to anyone left.
func reassignHost(room *internal.Room) {
	room.HostId = ""
	for _, p := range room.OrderedPlayers() {
		if p.IsConnected() {
			room.HostId = p.Id
			return
		}
	}
	if len(room.JoinOrder) > 0 {
		room.HostId = room.JoinOrder[0]
	}
}

func markDisconnected(room *internal.Room, playerID string) bool {
	p, ok := room.Players[playerID]
	if !ok {
		return false
	}
	p.Connection = internal.Disconnected
	if room.HostId == playerID {
		reassignHost(room)
	}
	return true
}

func allDisconnected(room *internal.Room) bool {
	for _, p := range room.Players {
		if p.IsConnected() {
			return false
		}
	}
	return true
}

// pruneDisconnected drops players who left during a game that has since ended.
func pruneDisconnected(room *internal.Room) []string {
	var dropped []string
	for _, p := range room.OrderedPlayers() {
		if !p.IsConnected() {
			removePlayer(room, p.Id)
			dropped = append(dropped, p.Id)
		}
	}
	return dropped
}

// resetToLobby returns a finished room to Waiting with fresh player state.
func resetToLobby(room *internal.Room, lives int) {
	room.Status = internal.StatusWaiting
	room.Turn = nil
	room.StartedAt = time.Time{}
	room.EndedAt = time.Time{}
	for _, p := range room.Players {
		p.ResetGameState(lives)
	}
}
