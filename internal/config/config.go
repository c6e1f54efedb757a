package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/game"
)

const EnvPrefix = "WORDBOMB"

var Version = "0.1.0"

type Config struct {
	Bind           string
	Port           int
	AllowedOrigins []string
	PublicURL      string

	DatabaseURL       string
	WordList          string
	DictionaryURL     string
	DictionaryTimeout time.Duration
	DefinitionTTL     time.Duration

	StartingLives          int
	TurnDuration           time.Duration
	WordmasterTurnDuration time.Duration
	MinTurnDuration        time.Duration
	TurnDurationStep       time.Duration
	PowerUpChance          float64
	PowerUpMinLength       int
	MaxPlayers             int
	LobbyResetDelay        time.Duration
	TimerTicks             bool

	MessageRate  float64
	MessageBurst int

	LogLevel  string
	LogPretty bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.StartingLives < 1 {
		return fmt.Errorf("starting-lives must be at least 1: %d", c.StartingLives)
	}
	for name, d := range map[string]time.Duration{
		"turn-duration":            c.TurnDuration,
		"wordmaster-turn-duration": c.WordmasterTurnDuration,
		"min-turn-duration":        c.MinTurnDuration,
		"lobby-reset-delay":        c.LobbyResetDelay,
		"dictionary-timeout":       c.DictionaryTimeout,
		"definition-ttl":           c.DefinitionTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive: %s", name, d)
		}
	}
	if c.TurnDurationStep < 0 {
		return fmt.Errorf("turn-duration-step must not be negative: %s", c.TurnDurationStep)
	}
	if c.MinTurnDuration > c.TurnDuration || c.MinTurnDuration > c.WordmasterTurnDuration {
		return errors.New("min-turn-duration must not exceed turn-duration or wordmaster-turn-duration")
	}
	if c.PowerUpChance < 0 || c.PowerUpChance > 1 {
		return fmt.Errorf("power-up-chance must be within [0, 1]: %v", c.PowerUpChance)
	}
	if c.PowerUpMinLength < 1 {
		return fmt.Errorf("power-up-min-length must be at least 1: %d", c.PowerUpMinLength)
	}
	if c.MaxPlayers < internal.MinPlayersToStart {
		return fmt.Errorf("max-players must be at least %d: %d", internal.MinPlayersToStart, c.MaxPlayers)
	}
	if c.MessageRate <= 0 || c.MessageBurst < 1 {
		return errors.New("message-rate must be positive and message-burst at least 1")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// GameSettings are the engine rules this configuration describes.
func (c *Config) GameSettings() game.Settings {
	s := game.DefaultSettings()
	s.StartingLives = c.StartingLives
	s.TurnDuration = c.TurnDuration
	s.WordmasterTurnDuration = c.WordmasterTurnDuration
	s.MinTurnDuration = c.MinTurnDuration
	s.TurnDurationStep = c.TurnDurationStep
	s.PowerUpChance = c.PowerUpChance
	s.PowerUpMinLength = c.PowerUpMinLength
	s.MaxPlayers = c.MaxPlayers
	s.LobbyResetDelay = c.LobbyResetDelay
	s.DefinitionTimeout = c.DictionaryTimeout
	s.TimerTicks = c.TimerTicks
	return s
}

// NewCommand builds the root command. Every flag can also be set through
// WORDBOMB_<FLAG> with dashes as underscores; explicit flags win.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "wordbomb",
		Short:   "Multiplayer word bomb game server.",
		Args:    cobra.NoArgs,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDBOMB_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: WORDBOMB_PORT)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "origins allowed to open websockets, empty allows all (env: WORDBOMB_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "base URL encoded in join QR codes (env: WORDBOMB_PUBLIC_URL)")

	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "PostgreSQL connection string, empty disables persistence (env: WORDBOMB_DATABASE_URL)")
	fs.StringVar(&cfg.WordList, "word-list", "", "txt or csv word list replacing the built-in dictionary (env: WORDBOMB_WORD_LIST)")
	fs.StringVar(&cfg.DictionaryURL, "dictionary-url", "", "remote dictionary base URL, empty disables (env: WORDBOMB_DICTIONARY_URL)")
	fs.DurationVar(&cfg.DictionaryTimeout, "dictionary-timeout", internal.DefaultDefinitionTimeout, "bound on each definition lookup (env: WORDBOMB_DICTIONARY_TIMEOUT)")
	fs.DurationVar(&cfg.DefinitionTTL, "definition-ttl", time.Hour, "how long definitions stay in memory (env: WORDBOMB_DEFINITION_TTL)")

	fs.IntVar(&cfg.StartingLives, "starting-lives", internal.DefaultStartingLives, "lives per player (env: WORDBOMB_STARTING_LIVES)")
	fs.DurationVar(&cfg.TurnDuration, "turn-duration", internal.DefaultTurnDuration, "first-round turn time (env: WORDBOMB_TURN_DURATION)")
	fs.DurationVar(&cfg.WordmasterTurnDuration, "wordmaster-turn-duration", internal.WordmasterTurnDuration, "first-round turn time in wordmaster mode (env: WORDBOMB_WORDMASTER_TURN_DURATION)")
	fs.DurationVar(&cfg.MinTurnDuration, "min-turn-duration", internal.MinTurnDuration, "shortest turn time (env: WORDBOMB_MIN_TURN_DURATION)")
	fs.DurationVar(&cfg.TurnDurationStep, "turn-duration-step", internal.TurnDurationStep, "turn time lost per round (env: WORDBOMB_TURN_DURATION_STEP)")
	fs.Float64Var(&cfg.PowerUpChance, "power-up-chance", internal.PowerUpChance, "chance a long word grants a power-up (env: WORDBOMB_POWER_UP_CHANCE)")
	fs.IntVar(&cfg.PowerUpMinLength, "power-up-min-length", internal.PowerUpMinWordLength, "letters needed for a power-up roll (env: WORDBOMB_POWER_UP_MIN_LENGTH)")
	fs.IntVar(&cfg.MaxPlayers, "max-players", internal.MaxPlayersPerRoom, "seats per room (env: WORDBOMB_MAX_PLAYERS)")
	fs.DurationVar(&cfg.LobbyResetDelay, "lobby-reset-delay", internal.LobbyResetDelay, "time on the results screen before the room reopens (env: WORDBOMB_LOBBY_RESET_DELAY)")
	fs.BoolVar(&cfg.TimerTicks, "timer-ticks", false, "broadcast the remaining turn time every second (env: WORDBOMB_TIMER_TICKS)")

	fs.Float64Var(&cfg.MessageRate, "message-rate", 5, "inbound messages per second per connection (env: WORDBOMB_MESSAGE_RATE)")
	fs.IntVar(&cfg.MessageBurst, "message-burst", 10, "inbound message burst per connection (env: WORDBOMB_MESSAGE_BURST)")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "trace, debug, info, warn or error (env: WORDBOMB_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", false, "human readable console logs (env: WORDBOMB_LOG_PRETTY)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, envValue(f, v))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordbomb v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// envValue renders a viper value in the form the flag parser expects.
func envValue(f *pflag.Flag, v *viper.Viper) string {
	if f.Value.Type() == "stringSlice" {
		return strings.Join(v.GetStringSlice(f.Name), ",")
	}
	return fmt.Sprintf("%v", v.Get(f.Name))
}
