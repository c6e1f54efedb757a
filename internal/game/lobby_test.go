package game

import (
	"testing"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seat(t *testing.T, room *internal.Room, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := joinPlayer(room, internal.NewPlayer(id, id, "", ""), false, internal.MaxPlayersPerRoom)
		require.NoError(t, err)
	}
}

func TestJoinPlayerHost(t *testing.T) {
	room := internal.NewRoom("r1")
	seat(t, room, "a", "b")
	assert.Equal(t, "a", room.HostId, "the first player hosts")
	assert.Equal(t, []string{"a", "b"}, room.JoinOrder)

	// Re-joining keeps the original seat.
	_, err := joinPlayer(room, internal.NewPlayer("a", "renamed", "", ""), false, internal.MaxPlayersPerRoom)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, room.JoinOrder)
	assert.Equal(t, "renamed", room.Players["a"].DisplayName)
}

func TestRemovePlayerReassignsHost(t *testing.T) {
	room := internal.NewRoom("r1")
	seat(t, room, "a", "b", "c")
	markDisconnected(room, "b")

	p, ok := removePlayer(room, "a")
	require.True(t, ok)
	assert.True(t, p.Removed)
	assert.Equal(t, "c", room.HostId, "connected players are preferred")

	removePlayer(room, "c")
	assert.Equal(t, "b", room.HostId)

	removePlayer(room, "b")
	assert.Empty(t, room.HostId)

	_, ok = removePlayer(room, "b")
	assert.False(t, ok)
}

func TestAllDisconnected(t *testing.T) {
	room := internal.NewRoom("r1")
	seat(t, room, "a", "b")
	assert.False(t, allDisconnected(room))

	markDisconnected(room, "a")
	assert.False(t, allDisconnected(room))
	markDisconnected(room, "b")
	assert.True(t, allDisconnected(room))

	assert.False(t, markDisconnected(room, "ghost"))
}

func TestPruneDisconnected(t *testing.T) {
	room := internal.NewRoom("r1")
	seat(t, room, "a", "b", "c")
	markDisconnected(room, "b")

	assert.Equal(t, []string{"b"}, pruneDisconnected(room))
	assert.Equal(t, []string{"a", "c"}, room.JoinOrder)
}
