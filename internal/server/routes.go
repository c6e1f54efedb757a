package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
	"github.com/skip2/go-qrcode"

	"github.com/scythe504/wordbomb-backend/internal"
	"github.com/scythe504/wordbomb-backend/internal/utils"
	"github.com/scythe504/wordbomb-backend/internal/words"
)

const (
	roomIDLength     = 6
	qrSize           = 320
	leaderboardLimit = 10
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(hlog.NewHandler(s.log))
	r.Use(s.accessLog)
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.IndexHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.CreateRoom).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms", s.ListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms-available", s.GetRoomToJoin).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/qr", s.RoomQRCode).Methods(http.MethodGet)

	r.HandleFunc("/definitions/{word}", s.GetDefinition).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", s.GetLeaderboard).Methods(http.MethodGet)

	if s.deps.WebSocket != nil {
		r.Handle("/ws/{roomId}", s.deps.WebSocket)
	}

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Websocket origins are checked by the upgrader
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})(next)
}

// respond writes the JSON envelope with its timing fields.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, start time.Time, status int, data any) {
	end := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: start.UnixMilli(),
		RespEndTime:   end,
		NetRespTime:   end - start.UnixMilli(),
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}

func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, time.Now(), http.StatusOK, map[string]string{
		"service": "wordbomb",
		"version": s.deps.Version,
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	db := map[string]string{"status": "disabled"}
	status := http.StatusOK
	if s.deps.Store != nil {
		db = s.deps.Store.Health(r.Context())
		if db["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	s.respond(w, r, start, status, map[string]any{
		"status":   overall,
		"rooms":    len(s.deps.Rooms.Rooms()),
		"database": db,
	})
}

// CreateRoom reserves a fresh room code. The room itself opens when the host connects.
func (s *Server) CreateRoom(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	roomID := utils.GenerateID(roomIDLength)
	for range 5 {
		if !s.deps.Rooms.RoomExists(roomID) {
			break
		}
		roomID = utils.GenerateID(roomIDLength)
	}
	s.respond(w, r, start, http.StatusCreated, map[string]string{"roomId": roomID})
}

func (s *Server) ListRooms(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, time.Now(), http.StatusOK, s.deps.Rooms.Rooms())
}

func (s *Server) GetRoomToJoin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if roomID := s.deps.Rooms.JoinableRoom(); roomID != "" {
		s.respond(w, r, start, http.StatusOK, roomID)
		return
	}
	s.respond(w, r, start, http.StatusNotFound, "No joinable rooms available")
}

// RoomQRCode renders a PNG QR code pointing at the room's join link.
func (s *Server) RoomQRCode(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	base := strings.TrimSuffix(s.deps.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}

	png, err := qrcode.Encode(base+"/?room="+roomID, qrcode.Medium, qrSize)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("room", roomID).Msg("qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	word := words.Normalize(mux.Vars(r)["word"])
	if word == "" {
		s.respond(w, r, start, http.StatusBadRequest, "missing word")
		return
	}

	def, ok := s.deps.Definitions.LookupDefinition(r.Context(), word)
	if !ok {
		s.respond(w, r, start, http.StatusNotFound, "No definition found")
		return
	}
	s.respond(w, r, start, http.StatusOK, def)
}

func (s *Server) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.deps.Store == nil {
		s.respond(w, r, start, http.StatusServiceUnavailable, "Leaderboard needs a database")
		return
	}

	limit := leaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respond(w, r, start, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	entries, err := s.deps.Store.TopPlayers(r.Context(), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("load leaderboard")
		s.respond(w, r, start, http.StatusInternalServerError, "Internal server error")
		return
	}
	if entries == nil {
		entries = []internal.LeaderboardEntry{}
	}
	s.respond(w, r, start, http.StatusOK, entries)
}
