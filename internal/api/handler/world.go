package handler

import (
	"net/http"

	"github.com/dragonworld-game/server/internal/api/response"
	"github.com/dragonworld-game/server/internal/game"
)

// WorldHandler exposes read-only views over live world state
type WorldHandler struct {
	registry *game.Registry
}

// NewWorldHandler creates a new world handler
func NewWorldHandler(registry *game.Registry) *WorldHandler {
	return &WorldHandler{
		registry: registry,
	}
}

// OnlineUsers handles GET /api/v1/online-users
func (h *WorldHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	sessions := h.registry.Snapshot("")

	users := make([]response.OnlineUser, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, response.OnlineUserFromSession(s))
	}

	response.JSON(w, http.StatusOK, response.OnlineUsersResponse{
		Count: len(users),
		Users: users,
	})
}
