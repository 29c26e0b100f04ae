package response

import (
	"time"

	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/services/auth"
)

// Profile represents an account profile in API responses
type Profile struct {
	AccountID string         `json:"account_id"`
	Nickname  string         `json:"nickname"`
	Position  model.Position `json:"position"`
	AvatarID  string         `json:"avatar_id,omitempty"`
	LastLogin time.Time      `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
}

// ProfileFromModel converts a model.Profile to a response Profile
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		AccountID: string(p.AccountID),
		Nickname:  p.Nickname,
		Position:  p.Position,
		AvatarID:  p.AvatarID,
		LastLogin: p.LastLogin,
		CreatedAt: p.CreatedAt,
	}
}

// AuthResponse is the response for registration and login
type AuthResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// AuthResponseFromResult creates an AuthResponse from a login result
func AuthResponseFromResult(r *auth.LoginResult) AuthResponse {
	return AuthResponse{
		Token:   r.Token,
		Profile: ProfileFromModel(r.Profile),
	}
}

// OnlineUser is one live session in the online-users listing
type OnlineUser struct {
	UserID   string  `json:"user_id"`
	Nickname string  `json:"nickname"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	AvatarID string  `json:"avatar_id,omitempty"`
	Score    int     `json:"score"`
}

// OnlineUserFromSession converts a live session
func OnlineUserFromSession(s model.Session) OnlineUser {
	return OnlineUser{
		UserID:   string(s.ConnectionID),
		Nickname: s.Nickname,
		X:        s.Position.X,
		Y:        s.Position.Y,
		AvatarID: s.AvatarID,
		Score:    s.Score,
	}
}

// OnlineUsersResponse lists everyone currently connected
type OnlineUsersResponse struct {
	Count int          `json:"count"`
	Users []OnlineUser `json:"users"`
}
