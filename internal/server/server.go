package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/game"
)

// Rooms is the read side of the room engine.
type Rooms interface {
	JoinableRoom() string
	Rooms() []game.RoomSummary
	RoomExists(roomID string) bool
}

type Definitions interface {
	LookupDefinition(ctx context.Context, word string) (internal.Definition, bool)
}

// Store is the optional persistence backend.
type Store interface {
	Health(ctx context.Context) map[string]string
	TopPlayers(ctx context.Context, limit int) ([]internal.LeaderboardEntry, error)
}

type Deps struct {
	Rooms       Rooms
	Definitions Definitions
	Store       Store // nil without a database
	WebSocket   http.Handler
	PublicURL   string
	Version     string
}

type Server struct {
	deps Deps
	log  zerolog.Logger
}

func New(deps Deps, log zerolog.Logger) *Server {
	return &Server{deps: deps, log: log.With().Str("component", "http").Logger()}
}

// HTTPServer wraps the routes in an *http.Server listening on addr. There is
// no write timeout: upgraded websockets manage their own deadlines.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
