package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/storage"
)

// Storage is an in-memory implementation of the profile store
type Storage struct {
	mu sync.RWMutex

	profiles      map[model.AccountID]*model.Profile
	credentials   map[model.AccountID]*model.Credential
	usernameIndex map[string]model.AccountID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles:      make(map[model.AccountID]*model.Profile),
		credentials:   make(map[model.AccountID]*model.Credential),
		usernameIndex: make(map[string]model.AccountID),
	}
}

// Ensure Storage implements the interface
var _ storage.ProfileStore = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.AccountID] = &copied
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.AccountID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.credentials[cred.AccountID] = &copied
	s.usernameIndex[cred.Username] = cred.AccountID
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, id model.AccountID) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	copied := *cred
	return &copied, nil
}

func (s *Storage) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	cred, ok := s.credentials[id]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	copied := *cred
	return &copied, nil
}

// Partial profile updates

func (s *Storage) UpdatePosition(ctx context.Context, id model.AccountID, pos model.Position) error {
	return s.updateProfile(id, func(p *model.Profile) {
		p.Position = pos
	})
}

func (s *Storage) UpdateNickname(ctx context.Context, id model.AccountID, nickname string) error {
	return s.updateProfile(id, func(p *model.Profile) {
		p.Nickname = nickname
	})
}

func (s *Storage) UpdateAvatar(ctx context.Context, id model.AccountID, avatarID string) error {
	return s.updateProfile(id, func(p *model.Profile) {
		p.AvatarID = avatarID
	})
}

func (s *Storage) TouchLastLogin(ctx context.Context, id model.AccountID, at time.Time) error {
	return s.updateProfile(id, func(p *model.Profile) {
		p.LastLogin = at
	})
}

func (s *Storage) updateProfile(id model.AccountID, apply func(*model.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return model.ErrProfileNotFound
	}
	apply(profile)
	return nil
}
