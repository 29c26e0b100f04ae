package game

import (
	"sync"
	"time"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/dependencies/random"
	"github.com/dragonworld-game/server/internal/model"
)

const nicknameSuffixAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Registry is the in-memory mapping from live connection to session state.
// It is owned by the event router; it never broadcasts and never persists.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.ConnectionID]*model.Session

	clock  clock.Clock
	random random.Random
}

// NewRegistry creates an empty session registry.
func NewRegistry(clk clock.Clock, rnd random.Random) *Registry {
	return &Registry{
		sessions: make(map[model.ConnectionID]*model.Session),
		clock:    clk,
		random:   rnd,
	}
}

// Upsert merges the patch into the session for id, creating a defaulted
// session first if none exists. It never fails; an unknown connection is
// not an error. Returns a copy of the resulting session.
func (r *Registry) Upsert(id model.ConnectionID, patch model.SessionPatch) model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.ensureLocked(id)
	if patch.Position != nil {
		session.Position = *patch.Position
	}
	if patch.Nickname != nil {
		session.Nickname = *patch.Nickname
	}
	if patch.AvatarID != nil {
		session.AvatarID = *patch.AvatarID
	}
	if patch.Score != nil {
		session.Score = *patch.Score
	}
	if patch.AccountID != nil {
		session.AccountID = *patch.AccountID
	}
	return *session
}

// Get returns a copy of the session for id, if it exists.
func (r *Registry) Get(id model.ConnectionID) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.Session{}, false
	}
	return *session, true
}

// Remove deletes the session for id and reports whether one was present.
// The report drives the exactly-once disconnect broadcast: only the call
// that actually removed the session may notify the other connections.
func (r *Registry) Remove(id model.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Snapshot returns copies of all current sessions in no particular order,
// excluding the given connection if non-empty. Used to replay world state
// to a new joiner without ever showing it itself.
func (r *Registry) Snapshot(exclude model.ConnectionID) []model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]model.Session, 0, len(r.sessions))
	for id, session := range r.sessions {
		if exclude != "" && id == exclude {
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ensureLocked returns the session for id, creating a defaulted one if
// absent. Caller must hold the write lock.
func (r *Registry) ensureLocked(id model.ConnectionID) *model.Session {
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := &model.Session{
		ConnectionID: id,
		Position:     model.DefaultPosition,
		Nickname:     r.placeholderNickname(),
		JoinedAt:     r.now(),
	}
	r.sessions[id] = session
	return session
}

// placeholderNickname generates the display name used until a client
// explicitly sets one. Placeholders are exempt from nickname length rules.
func (r *Registry) placeholderNickname() string {
	return "Dragon-" + r.random.String(4, nicknameSuffixAlphabet)
}

func (r *Registry) now() time.Time {
	if r.clock == nil {
		return time.Time{}
	}
	return r.clock.Now()
}
