package game

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/scythe504/wordbomb-backend/internal"
)

// CalculateFinalResults compiles the standings of a finished game. Players are
// ranked by score, then by lives left, then by who joined first.
func CalculateFinalResults(room *internal.Room, winner *string, rounds int) internal.GameResult {
	players := room.OrderedPlayers()
	seat := make(map[string]int, len(players))
	for i, p := range players {
		seat[p.Id] = i
	}

	// 1. One entry per seated player
	scores := make([]internal.FinalScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, internal.FinalScore{
			PlayerID:      p.Id,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
			Lives:         p.Lives,
			WordsAccepted: p.WordsAccepted,
			LongestWord:   p.LongestWord,
		})
	}

	// 2. Rank them
	slices.SortStableFunc(scores, func(a, b internal.FinalScore) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(b.Lives, a.Lives),
			cmp.Compare(seat[a.PlayerID], seat[b.PlayerID]),
		)
	})
	for i := range scores {
		scores[i].Position = i + 1
	}

	return internal.GameResult{
		Id:          uuid.NewString(),
		RoomID:      room.Id,
		Mode:        room.Mode,
		Winner:      winner,
		FinalScores: scores,
		Rounds:      rounds,
		StartedAt:   room.StartedAt,
		EndedAt:     room.EndedAt,
	}
}
