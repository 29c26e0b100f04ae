package game

import (
	"encoding/json"

	"github.com/dragonworld-game/server/internal/model"
)

// Client-to-server event names
const (
	EventAuthenticate         = "authenticate"
	EventPositionUpdate       = "position_update"
	EventDragonSelected       = "dragon_selected"
	EventNicknameUpdate       = "nickname_update"
	EventScoreUpdate          = "score_update"
	EventCollectibleCollected = "collectible_collected"
	EventChatMessage          = "chat_message"
)

// Server-to-client event names
const (
	EventUserConnected     = "user_connected"
	EventUsersState        = "users_state"
	EventCollectiblesState = "collectibles_state"
	EventUserMoved         = "user_moved"
	EventUserDisconnected  = "user_disconnected"
	EventAuthenticated     = "authenticated"
	EventRejected          = "event_rejected"
)

// Envelope is the wire frame for every message: an event name plus a
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FanoutPolicy determines which connections receive an outbound event.
type FanoutPolicy int

const (
	// FanoutSenderOnly delivers only to the connection the event came from.
	FanoutSenderOnly FanoutPolicy = iota
	// FanoutExcludeSender delivers to every connection except the sender.
	FanoutExcludeSender
	// FanoutAll delivers to every connection including the sender.
	FanoutAll
)

// Outbound is one event the router wants delivered, tagged with its
// fan-out policy. The transport layer decides nothing; it just applies
// the policy.
type Outbound struct {
	Policy  FanoutPolicy
	Event   string
	Payload any
}

// Inbound payloads. Required fields are pointers so a missing key is
// distinguishable from a zero value at the boundary.

// AuthenticatePayload binds a bearer token to the live connection.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// PositionUpdatePayload reports the sender's location. It may also carry
// avatar, nickname, and score so a client can push its full state in one
// message after loading.
type PositionUpdatePayload struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	DragonID *string  `json:"dragonId,omitempty"`
	Nickname *string  `json:"nickname,omitempty"`
	Score    *int     `json:"score,omitempty"`
}

// DragonSelectedPayload reports the sender's avatar choice.
type DragonSelectedPayload struct {
	DragonID string `json:"dragonId"`
}

// NicknameUpdatePayload sets the sender's display name.
type NicknameUpdatePayload struct {
	Nickname string `json:"nickname"`
}

// ScoreUpdatePayload reports the sender's score.
type ScoreUpdatePayload struct {
	Score *int `json:"score"`
}

// CollectiblePayload identifies a world item by its fixed coordinates.
// The item key is always derived server-side from these coordinates;
// client-supplied ids are ignored.
type CollectiblePayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ChatMessagePayload is a chat line with the sender's position so clients
// can render speech bubbles.
type ChatMessagePayload struct {
	Nickname string  `json:"nickname,omitempty"`
	Message  string  `json:"message"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// Outbound payloads

// UserConnectedPayload is unicast to a new connection with its assigned id
// and defaulted session state.
type UserConnectedPayload struct {
	UserID   string         `json:"userId"`
	Position model.Position `json:"position"`
	Nickname string         `json:"nickname"`
}

// UserState is one entry of the world snapshot replayed to a joiner.
type UserState struct {
	UserID   string  `json:"userId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Nickname string  `json:"nickname"`
	DragonID string  `json:"dragonId,omitempty"`
	Score    int     `json:"score"`
}

// UsersStatePayload is the full session snapshot, excluding the receiver.
type UsersStatePayload struct {
	Users []UserState `json:"users"`
}

// CollectiblesStatePayload replays every collected item to a joiner.
type CollectiblesStatePayload struct {
	Collectibles []model.CollectibleRecord `json:"collectibles"`
}

// UserMovedPayload mirrors position_update to other connections.
type UserMovedPayload struct {
	UserID   string  `json:"userId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	DragonID string  `json:"dragonId,omitempty"`
	Nickname string  `json:"nickname,omitempty"`
	Score    *int    `json:"score,omitempty"`
}

// DragonSelectedBroadcast mirrors dragon_selected with the sender's id.
type DragonSelectedBroadcast struct {
	UserID   string `json:"userId"`
	DragonID string `json:"dragonId"`
}

// NicknameUpdateBroadcast mirrors nickname_update with the sender's id.
type NicknameUpdateBroadcast struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// ScoreUpdateBroadcast mirrors score_update with the sender's id.
type ScoreUpdateBroadcast struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

// CollectibleCollectedBroadcast announces a pickup to all connections.
// CollectedBy is always the first collector, even on replayed duplicates.
type CollectibleCollectedBroadcast struct {
	ItemID      string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	CollectedBy string  `json:"collectedBy"`
}

// ChatMessageBroadcast mirrors chat_message to all connections.
type ChatMessageBroadcast struct {
	UserID   string  `json:"userId"`
	Nickname string  `json:"nickname"`
	Message  string  `json:"message"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// UserDisconnectedPayload notifies remaining connections of a departure.
type UserDisconnectedPayload struct {
	UserID string `json:"userId"`
}

// AuthenticatedPayload acknowledges a successful authenticate event with
// the rehydrated session state.
type AuthenticatedPayload struct {
	UserID   string         `json:"userId"`
	Nickname string         `json:"nickname"`
	Position model.Position `json:"position"`
	DragonID string         `json:"dragonId,omitempty"`
}

// RejectedPayload is unicast to a sender whose event failed validation.
// Other connections never observe the malformed input.
type RejectedPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}
