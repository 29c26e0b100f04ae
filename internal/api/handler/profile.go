package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dragonworld-game/server/internal/api/middleware"
	"github.com/dragonworld-game/server/internal/api/request"
	"github.com/dragonworld-game/server/internal/api/response"
	"github.com/dragonworld-game/server/internal/services/auth"
)

// ProfileHandler handles authenticated profile endpoints
type ProfileHandler struct {
	authService *auth.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(authService *auth.Service) *ProfileHandler {
	return &ProfileHandler{
		authService: authService,
	}
}

// GetMe handles GET /api/v1/me
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.MustGetAccountID(r.Context())

	profile, err := h.authService.GetProfile(r.Context(), accountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}

// UpdateNickname handles POST /api/v1/update-nickname
func (h *ProfileHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.MustGetAccountID(r.Context())

	var req request.UpdateNicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Nickname == "" {
		WriteError(w, NewInvalidRequestError("nickname is required"))
		return
	}

	if err := h.authService.UpdateNickname(r.Context(), accountID, req.Nickname); err != nil {
		WriteError(w, err)
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), accountID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}
