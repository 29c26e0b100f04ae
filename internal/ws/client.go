package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/model"
)

// Config holds websocket connection tuning
type Config struct {
	// WriteWait is the deadline for a single outbound write.
	WriteWait time.Duration

	// PongWait is how long a connection may go without a pong before it is
	// considered dead. Pings are sent at a fraction of this interval.
	PongWait time.Duration

	// MaxMessageSize caps inbound frame size in bytes.
	MaxMessageSize int64

	// SendQueueSize is the per-client outbound buffer. A client that cannot
	// drain it is disconnected rather than allowed to stall broadcasts.
	SendQueueSize int
}

// DefaultConfig returns sensible websocket defaults
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 8192,
		SendQueueSize:  64,
	}
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// Client is one live websocket connection. Reads and writes each run on
// their own goroutine; the send channel is the only path to the socket.
type Client struct {
	id     model.ConnectionID
	conn   *websocket.Conn
	hub    *Hub
	cfg    Config
	logger *slog.Logger

	send chan []byte
	done chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Game clients are served from arbitrary origins (itch-style embeds),
	// and the socket carries no ambient credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket connection and runs it
// until the peer disappears.
func ServeWS(hub *Hub, logger *slog.Logger, cfg Config, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	id := model.ConnectionID(uuid.NewString())
	c := &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		cfg:  cfg,
		logger: logger.With(
			slog.String("component", "ws_client"),
			slog.String("connection_id", string(id))),
		send: make(chan []byte, cfg.SendQueueSize),
		done: make(chan struct{}),
	}

	hub.Register(c)

	go c.writePump()
	c.readPump(r.Context())
}

// enqueue queues a frame for delivery, dropping the client if its buffer
// is full. A stalled client must not hold up the fan-out loop.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("send queue full, closing connection")
		c.closeSlow()
	}
}

func (c *Client) closeSlow() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// readPump reads frames until the connection dies, dispatching each one
// through the hub. It owns unregistration.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.closeSlow()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}

		var env game.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Debug("dropping unparseable frame", slog.Any("error", err))
			continue
		}

		c.hub.Dispatch(ctx, c.id, env)
	}
}

// writePump drains the send channel to the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "send queue overflow"))
			return
		}
	}
}
