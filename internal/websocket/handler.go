package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/game"
	"github.com/scythe504/wordbomb-backend/internal/utils"
)

const actionTimeout = 10 * time.Second

// Engine is the part of the room engine the socket layer drives.
type Engine interface {
	RoomExists(roomID string) bool
	Join(ctx context.Context, roomID string, p *internal.Player, asHost bool) (game.JoinResult, error)
	Leave(ctx context.Context, roomID, playerID string) error
	Disconnect(ctx context.Context, roomID, playerID string) error
	StartGame(ctx context.Context, roomID, callerID, mode string) error
	SubmitWord(ctx context.Context, roomID, playerID, word string) (game.SubmissionOutcome, error)
	UsePowerUp(ctx context.Context, roomID, playerID, kind, targetID string) (game.PowerUpOutcome, error)
	RequestDefinition(ctx context.Context, roomID, playerID, word string) (*internal.Definition, error)
}

type Options struct {
	AllowedOrigins []string
	MessageRate    float64
	MessageBurst   int
}

// Handler upgrades /ws/{roomId} requests and runs the connection.
type Handler struct {
	engine   Engine
	hub      *Hub
	upgrader websocket.Upgrader
	opts     Options
	log      zerolog.Logger
}

func NewHandler(engine Engine, hub *Hub, opts Options, log zerolog.Logger) *Handler {
	if opts.MessageRate <= 0 {
		opts.MessageRate = 5
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 10
	}
	h := &Handler{
		engine: engine,
		hub:    hub,
		opts:   opts,
		log:    log.With().Str("component", "websocket").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin)
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Identify the room and the player
	roomID := mux.Vars(r)["roomId"]
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	asHost, _ := strconv.ParseBool(q.Get("host"))
	if !asHost && !h.engine.RoomExists(roomID) {
		http.Error(w, game.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	playerID := q.Get("playerId")
	if playerID == "" {
		playerID = utils.NewPlayerID()
	}
	name := q.Get("name")
	if name == "" {
		name = "Anonymous"
	}
	player := internal.NewPlayer(playerID, name, q.Get("color"), q.Get("avatar"))

	// 2. Upgrade
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("room", roomID).Msg("upgrade failed")
		return
	}

	limiter := rate.NewLimiter(rate.Limit(h.opts.MessageRate), h.opts.MessageBurst)
	c := newClient(conn, roomID, playerID, limiter, h.log)
	go c.writePump()

	// 3. Register before joining so a reconnect snapshot reaches this socket
	if prev := h.hub.register(c); prev != nil {
		prev.close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	res, err := h.engine.Join(ctx, roomID, player, asHost)
	cancel()
	if err != nil {
		h.log.Info().Err(err).Str("room", roomID).Str("player", playerID).Msg("join rejected")
		c.sendError(err.Error(), errorKind(err))
		h.hub.unregister(c)
		c.close()
		return
	}

	c.send(internal.Message[any]{
		Type: internal.EventJoined,
		Data: internal.JoinedData{
			PlayerID:    playerID,
			RoomID:      roomID,
			IsReconnect: res.IsReconnect,
			Room:        res.Room,
		},
	})

	// 4. Read until the socket goes away
	c.readPump(func(raw []byte) { h.dispatch(c, raw) })

	// 5. Only the player's current socket reports the disconnect
	if h.hub.unregister(c) {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		err := h.engine.Disconnect(ctx, roomID, playerID)
		if err != nil && !errors.Is(err, game.ErrRoomNotFound) && !errors.Is(err, game.ErrPlayerNotFound) {
			h.log.Warn().Err(err).Str("room", roomID).Str("player", playerID).Msg("disconnect failed")
		}
	}
	c.close()
}

// dispatch routes one inbound message to the engine. Failures go back to the
// sender only.
func (h *Handler) dispatch(c *Client, raw []byte) {
	if !c.limiter.Allow() {
		c.sendError("slow down", "rate_limited")
		return
	}

	var msg internal.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("malformed message", "bad_message")
		return
	}
	c.log.Debug().Str("type", msg.Type).Msg("message received")

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case internal.ActionStartGame:
		var data internal.StartGameData
		if err = decode(msg.Data, &data); err == nil {
			err = h.engine.StartGame(ctx, c.roomID, c.playerID, data.Mode)
		}

	case internal.ActionSubmitWord:
		var data internal.SubmitWordData
		if err = decode(msg.Data, &data); err == nil {
			_, err = h.engine.SubmitWord(ctx, c.roomID, c.playerID, data.Word)
		}

	case internal.ActionUsePowerUp:
		var data internal.UsePowerUpData
		if err = decode(msg.Data, &data); err == nil {
			_, err = h.engine.UsePowerUp(ctx, c.roomID, c.playerID, data.Kind, data.TargetID)
		}

	case internal.ActionRequestDefinition:
		var data internal.RequestDefinitionData
		if err = decode(msg.Data, &data); err == nil {
			_, err = h.engine.RequestDefinition(ctx, c.roomID, c.playerID, data.Word)
		}

	case internal.ActionLeave:
		err = h.engine.Leave(ctx, c.roomID, c.playerID)
		if err == nil {
			h.hub.unregister(c)
			c.close()
			return
		}

	default:
		c.sendError("unknown message type "+strconv.Quote(msg.Type), "unknown_message")
		return
	}

	if err != nil {
		c.sendError(err.Error(), errorKind(err))
	}
}

var errBadPayload = errors.New("malformed message data")

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}

func errorKind(err error) string {
	if reason, ok := game.ReasonOf(err); ok {
		return string(reason)
	}
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, game.ErrRoomClosed):
		return "room_closed"
	case errors.Is(err, game.ErrRoomCorrupted):
		return "room_corrupted"
	case errors.Is(err, errBadPayload):
		return "bad_message"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "internal"
}
