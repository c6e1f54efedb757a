package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/scythe504/wordbomb-backend/internal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one player's socket. Writes go through a buffered channel drained
// by writePump, so the room loop never waits on the network.
type Client struct {
	roomID   string
	playerID string

	conn    *websocket.Conn
	out     chan []byte
	limiter *rate.Limiter
	log     zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, roomID, playerID string, limiter *rate.Limiter, log zerolog.Logger) *Client {
	return &Client{
		roomID:   roomID,
		playerID: playerID,
		conn:     conn,
		out:      make(chan []byte, sendBuffer),
		limiter:  limiter,
		log:      log.With().Str("room", roomID).Str("player", playerID).Logger(),
		done:     make(chan struct{}),
	}
}

// enqueue hands data to the writer. A client that cannot keep up is dropped.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.out <- data:
	default:
		c.log.Warn().Msg("send buffer full, dropping connection")
		c.close()
	}
}

func (c *Client) send(msg internal.Message[any]) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Str("type", msg.Type).Msg("marshal message")
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(message, kind string) {
	c.send(internal.Message[any]{
		Type: internal.EventError,
		Data: internal.ErrorData{Message: message, Kind: kind},
	})
}

// close asks writePump to flush and hang up; the socket is closed there.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump delivers every text frame to handle until the socket fails.
func (c *Client) readPump(handle func(raw []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			return
		}
		handle(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued and says goodbye.
func (c *Client) flush() {
	for {
		select {
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
