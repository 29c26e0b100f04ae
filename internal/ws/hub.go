package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/model"
)

// Hub owns the set of live websocket clients and applies the router's
// fan-out decisions to them. All registry and ledger mutation happens
// inside the router; the hub only moves frames.
type Hub struct {
	router *game.Router
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
}

// NewHub creates a hub over the given router.
func NewHub(router *game.Router, logger *slog.Logger) *Hub {
	return &Hub{
		router:  router,
		logger:  logger.With(slog.String("component", "hub")),
		clients: make(map[model.ConnectionID]*Client),
	}
}

// Register adds a client and runs the join replay. The client is in the
// map before the replay is delivered, so broadcasts racing the join reach
// it as soon as its session exists.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.deliver(c.id, h.router.Connect(c.id))
}

// Unregister removes a client and broadcasts the departure, exactly once
// even if the read and write pumps both report the close.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	h.deliver(c.id, h.router.Disconnect(c.id))
}

// Dispatch routes one inbound frame and delivers the results.
func (h *Hub) Dispatch(ctx context.Context, senderID model.ConnectionID, env game.Envelope) {
	h.deliver(senderID, h.router.Dispatch(ctx, senderID, env))
}

func (h *Hub) deliver(senderID model.ConnectionID, outbound []game.Outbound) {
	for _, out := range outbound {
		frame, err := json.Marshal(game.Envelope{Event: out.Event, Data: mustMarshal(out.Payload)})
		if err != nil {
			h.logger.Error("failed to encode outbound event",
				slog.String("event", out.Event),
				slog.Any("error", err))
			continue
		}

		h.mu.RLock()
		switch out.Policy {
		case game.FanoutSenderOnly:
			if c, ok := h.clients[senderID]; ok {
				c.enqueue(frame)
			}
		case game.FanoutExcludeSender:
			for id, c := range h.clients {
				if id == senderID {
					continue
				}
				c.enqueue(frame)
			}
		case game.FanoutAll:
			for _, c := range h.clients {
				c.enqueue(frame)
			}
		}
		h.mu.RUnlock()
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func mustMarshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
