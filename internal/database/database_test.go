package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scythe504/wordbomb-backend/internal"
)

var testStore *Store

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("wordbomb"),
		postgres.WithUsername("wordbomb"),
		postgres.WithPassword("wordbomb"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable, database tests will skip: %v\n", err)
		return m.Run()
	}
	defer func() { _ = testcontainers.TerminateContainer(container) }()

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}
	testStore, err = New(ctx, url)
	if err != nil {
		panic(err)
	}
	defer testStore.Close()

	return m.Run()
}

func requireStore(t *testing.T) *Store {
	t.Helper()
	if testStore == nil {
		t.Skip("no postgres container")
	}
	return testStore
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := requireStore(t)
	cfg := s.pool.Config().ConnConfig.ConnString()
	require.NoError(t, Migrate(context.Background(), cfg))
}

func TestHealth(t *testing.T) {
	s := requireStore(t)
	stats := s.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "total_connections")
}

func TestWords(t *testing.T) {
	s := requireStore(t)
	ctx := context.Background()

	n, err := s.SeedWords(ctx, []string{"banana", "running", "banana"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.SeedWords(ctx, []string{"banana"})
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := s.Words(ctx)
	require.NoError(t, err)
	assert.Subset(t, list, []string{"banana", "running"})
}

func TestDefinitions(t *testing.T) {
	s := requireStore(t)
	ctx := context.Background()

	_, ok, err := s.Definition(ctx, "zymurgy")
	require.NoError(t, err)
	assert.False(t, ok)

	def := internal.Definition{Word: "zymurgy", PartOfSpeech: "noun", Meaning: "brewing chemistry", Source: "remote"}
	require.NoError(t, s.SaveDefinition(ctx, def))

	got, ok, err := s.Definition(ctx, "zymurgy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, def, got)

	def.Meaning = "the chemistry of fermentation"
	require.NoError(t, s.SaveDefinition(ctx, def))
	got, _, err = s.Definition(ctx, "zymurgy")
	require.NoError(t, err)
	assert.Equal(t, def.Meaning, got.Meaning)
}

func TestRecordGameAndLeaderboard(t *testing.T) {
	s := requireStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	game := func(winner *string, scores ...internal.FinalScore) internal.GameResult {
		return internal.GameResult{
			Id:          uuid.NewString(),
			RoomID:      "r1",
			Mode:        internal.ModeOnline,
			Winner:      winner,
			FinalScores: scores,
			Rounds:      3,
			StartedAt:   now.Add(-time.Minute),
			EndedAt:     now,
		}
	}
	ann, bob := "lb-ann", "lb-bob"

	require.NoError(t, s.RecordGame(ctx, game(&ann,
		internal.FinalScore{PlayerID: ann, DisplayName: "LbAnn", Score: 9, Lives: 2, Position: 1, WordsAccepted: 3, LongestWord: "interesting"},
		internal.FinalScore{PlayerID: bob, DisplayName: "LbBob", Score: 4, Position: 2},
	)))
	require.NoError(t, s.RecordGame(ctx, game(nil,
		internal.FinalScore{PlayerID: bob, DisplayName: "LbBob", Score: 3, Position: 1},
	)))

	dup := game(&ann, internal.FinalScore{PlayerID: ann, DisplayName: "LbAnn", Position: 1})
	require.NoError(t, s.RecordGame(ctx, dup))
	assert.ErrorIs(t, s.RecordGame(ctx, dup), ErrUnexpectedDatabase)

	top, err := s.TopPlayers(ctx, 100)
	require.NoError(t, err)

	byName := map[string]internal.LeaderboardEntry{}
	for _, e := range top {
		byName[e.DisplayName] = e
	}
	assert.Equal(t, internal.LeaderboardEntry{DisplayName: "LbAnn", TotalScore: 9, Games: 2, Wins: 2}, byName["LbAnn"])
	assert.Equal(t, internal.LeaderboardEntry{DisplayName: "LbBob", TotalScore: 7, Games: 2, Wins: 0}, byName["LbBob"])
}

func TestContextErrorsPassThrough(t *testing.T) {
	s := requireStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Words(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnexpectedDatabase)
}
