package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scythe504/wordbomb-backend/internal/config"
	"github.com/scythe504/wordbomb-backend/internal/database"
	"github.com/scythe504/wordbomb-backend/internal/game"
	"github.com/scythe504/wordbomb-backend/internal/logger"
	"github.com/scythe504/wordbomb-backend/internal/server"
	"github.com/scythe504/wordbomb-backend/internal/utils"
	"github.com/scythe504/wordbomb-backend/internal/websocket"
	"github.com/scythe504/wordbomb-backend/internal/words"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, serve)
	cmd.AddCommand(seedCommand(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("wordbomb exited")
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	lg, err := logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return err
	}
	lg.Info().Str("version", config.Version).Str("addr", cfg.Addr()).Msg("starting wordbomb")

	// 1. Persistence
	var store *database.Store
	if cfg.DatabaseURL != "" {
		if store, err = database.New(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer store.Close()
		lg.Info().Msg("database connected")
	}

	// 2. Words
	dict, err := loadDictionary(ctx, cfg, store, lg)
	if err != nil {
		return err
	}
	oracleOpts := []words.Option{
		words.WithTimeout(cfg.DictionaryTimeout),
		words.WithCacheTTL(cfg.DefinitionTTL),
		words.WithLogger(lg.With().Str("component", "words").Logger()),
	}
	if cfg.DictionaryURL != "" {
		client := &http.Client{Timeout: cfg.DictionaryTimeout}
		oracleOpts = append(oracleOpts, words.WithRemote(words.NewRemoteDictionary(cfg.DictionaryURL, client)))
	}
	if store != nil {
		oracleOpts = append(oracleOpts, words.WithStore(store))
	}
	oracle := words.NewOracle(dict, oracleOpts...)

	// 3. Engine and transport
	hub := websocket.NewHub(lg.With().Str("component", "hub").Logger())
	emitters := game.Emitters{hub}
	var recorder *database.Recorder
	if store != nil {
		recorder = database.NewRecorder(store, lg)
		emitters = append(emitters, recorder)
	}
	engine := game.NewEngine(oracle, emitters,
		game.WithSettings(cfg.GameSettings()),
		game.WithLogger(lg))

	ws := websocket.NewHandler(engine, hub, websocket.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		MessageRate:    cfg.MessageRate,
		MessageBurst:   cfg.MessageBurst,
	}, lg)

	deps := server.Deps{
		Rooms:       engine,
		Definitions: oracle,
		WebSocket:   ws,
		PublicURL:   cfg.PublicURL,
		Version:     config.Version,
	}
	if store != nil {
		deps.Store = store
	}
	srv := server.New(deps, lg).HTTPServer(cfg.Addr())

	// 4. Serve until signalled
	errs := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	lg.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn().Err(err).Msg("http shutdown")
	}
	hub.Close()
	engine.Shutdown()
	if recorder != nil {
		recorder.Wait()
	}
	return nil
}

// loadDictionary picks the word list: a file when configured, then the
// database, then the built-in list.
func loadDictionary(ctx context.Context, cfg *config.Config, store *database.Store, lg zerolog.Logger) (*words.Dictionary, error) {
	if cfg.WordList != "" {
		list, err := utils.ReadWordFile(cfg.WordList)
		if err != nil {
			return nil, err
		}
		dict := words.NewDictionary(list)
		lg.Info().Str("source", cfg.WordList).Int("words", dict.Len()).Msg("dictionary loaded")
		return dict, nil
	}

	if store != nil {
		list, err := store.Words(ctx)
		if err != nil {
			return nil, fmt.Errorf("load words: %w", err)
		}
		if len(list) > 0 {
			dict := words.NewDictionary(list)
			lg.Info().Str("source", "database").Int("words", dict.Len()).Msg("dictionary loaded")
			return dict, nil
		}
	}

	dict := words.Default()
	lg.Info().Str("source", "builtin").Int("words", dict.Len()).Msg("dictionary loaded")
	return dict, nil
}

func seedCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-words",
		Short: "Copy the word list into the database dictionary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := logger.Setup(cfg.LogLevel, cfg.LogPretty)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("seed-words needs --database-url")
			}

			store, err := database.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer store.Close()

			list := words.Default().Words()
			if cfg.WordList != "" {
				if list, err = utils.ReadWordFile(cfg.WordList); err != nil {
					return err
				}
			}

			n, err := store.SeedWords(cmd.Context(), list)
			if err != nil {
				return err
			}
			lg.Info().Int64("added", n).Int("offered", len(list)).Msg("dictionary seeded")
			return nil
		},
	}
}
