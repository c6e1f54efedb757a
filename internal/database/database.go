// Package database persists the dictionary, cached definitions and finished
// games in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/scythe504/wordbomb-backend/internal"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var ErrUnexpectedDatabase = errors.New("unexpected database error")

type Store struct {
	pool *pgxpool.Pool
}

// New connects to url, applies pending migrations and returns a ready store.
func New(ctx context.Context, url string) (*Store, error) {
	if err := Migrate(ctx, url); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate runs the embedded goose migrations through the pgx database/sql driver.
func Migrate(ctx context.Context, url string) error {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Health reports connectivity and pool statistics.
func (s *Store) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["total_connections"] = strconv.Itoa(int(st.TotalConns()))
	stats["idle_connections"] = strconv.Itoa(int(st.IdleConns()))
	stats["acquired_connections"] = strconv.Itoa(int(st.AcquiredConns()))
	return stats
}

// Words returns the stored dictionary.
func (s *Store) Words(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT word FROM words`)
	if err != nil {
		return nil, dbError(err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

// SeedWords adds words to the dictionary, skipping ones already present.
func (s *Store) SeedWords(ctx context.Context, list []string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO words (word) SELECT unnest($1::text[]) ON CONFLICT DO NOTHING`, list)
	if err != nil {
		return 0, dbError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Definition(ctx context.Context, word string) (internal.Definition, bool, error) {
	def := internal.Definition{Word: word}
	err := s.pool.QueryRow(ctx,
		`SELECT part_of_speech, meaning, source FROM definitions WHERE word = $1`, word,
	).Scan(&def.PartOfSpeech, &def.Meaning, &def.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.Definition{}, false, nil
	}
	if err != nil {
		return internal.Definition{}, false, dbError(err)
	}
	return def, true, nil
}

func (s *Store) SaveDefinition(ctx context.Context, def internal.Definition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO definitions (word, part_of_speech, meaning, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (word) DO UPDATE
		SET part_of_speech = EXCLUDED.part_of_speech,
		    meaning = EXCLUDED.meaning,
		    source = EXCLUDED.source,
		    fetched_at = now()`,
		def.Word, def.PartOfSpeech, def.Meaning, def.Source)
	return dbError(err)
}

// RecordGame stores a finished game and every player's final line in one transaction.
func (s *Store) RecordGame(ctx context.Context, result internal.GameResult) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO games (id, room_id, mode, winner, rounds, started_at, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			result.Id, result.RoomID, string(result.Mode), result.Winner, result.Rounds,
			result.StartedAt, result.EndedAt)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, fs := range result.FinalScores {
			batch.Queue(`
				INSERT INTO game_players
					(game_id, player_id, display_name, score, lives, position, words_accepted, longest_word)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				result.Id, fs.PlayerID, fs.DisplayName, fs.Score, fs.Lives, fs.Position,
				fs.WordsAccepted, fs.LongestWord)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return dbError(err)
}

// TopPlayers ranks display names by total score across recorded games.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]internal.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gp.display_name,
		       SUM(gp.score)::int,
		       COUNT(*)::int,
		       (COUNT(*) FILTER (WHERE g.winner = gp.player_id))::int
		FROM game_players gp
		JOIN games g ON g.id = gp.game_id
		GROUP BY gp.display_name
		ORDER BY 2 DESC, 4 DESC, 1
		LIMIT $1`, limit)
	if err != nil {
		return nil, dbError(err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[internal.LeaderboardEntry])
	if err != nil {
		return nil, dbError(err)
	}
	return entries, nil
}

// dbError keeps context errors recognizable and wraps the rest.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
	}
}
