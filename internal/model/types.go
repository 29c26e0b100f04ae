package model

import "time"

// ConnectionID uniquely identifies a live websocket connection.
// Assigned by the server on connect and never reused after disconnect.
type ConnectionID string

// AccountID uniquely identifies a registered account.
type AccountID string

// Position is a location in the world.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultPosition is where a fresh session spawns before it reports
// its own location.
var DefaultPosition = Position{X: 400, Y: 300}

// Session is the live state for one connection. It exists exactly as long
// as the connection is live; a reconnecting client gets a fresh session.
type Session struct {
	ConnectionID ConnectionID
	Position     Position
	Nickname     string
	AvatarID     string // empty until a dragon is selected
	Score        int
	AccountID    AccountID // empty until the connection authenticates
	JoinedAt     time.Time
}

// SessionPatch carries the fields an inbound event wants to merge into a
// session. Nil pointers mean "leave unchanged".
type SessionPatch struct {
	Position  *Position
	Nickname  *string
	AvatarID  *string
	Score     *int
	AccountID *AccountID
}

// CollectibleRecord tracks a world item that has been picked up.
// Once Collected is set it never reverts and CollectedBy never changes.
type CollectibleRecord struct {
	ItemID      string    `json:"id"`
	Collected   bool      `json:"collected"`
	CollectedBy string    `json:"collectedBy,omitempty"`
	CollectedAt time.Time `json:"collectedAt,omitempty"`
}

// Profile is the durable per-account state kept in the profile store.
type Profile struct {
	AccountID AccountID
	Nickname  string
	Position  Position
	AvatarID  string
	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential extends Profile with authentication data.
// Stored separately so password hashes never travel with profile reads.
type Credential struct {
	AccountID    AccountID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Nickname length bounds enforced on explicit nickname updates.
// Defaulted placeholder nicknames are not constrained.
const (
	NicknameMinLen = 2
	NicknameMaxLen = 64
)

// ValidNickname reports whether an explicitly chosen nickname is within
// the allowed length bounds.
func ValidNickname(nickname string) bool {
	return len(nickname) >= NicknameMinLen && len(nickname) <= NicknameMaxLen
}
