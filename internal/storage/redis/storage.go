package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/storage"
)

// Storage is a Redis-backed implementation of the profile store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.ProfileStore = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.AccountID), data, 0).Err()
}

func (s *Storage) GetProfile(ctx context.Context, id model.AccountID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Credential operations

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, credentialKey(cred.AccountID), data, 0)
	pipe.Set(ctx, usernameIndexKey(cred.Username), string(cred.AccountID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCredential(ctx context.Context, id model.AccountID) (*model.Credential, error) {
	data, err := s.client.Get(ctx, credentialKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *Storage) GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error) {
	// Look up account ID from username index
	accountID, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, err
	}

	return s.GetCredential(ctx, model.AccountID(accountID))
}

// Partial profile updates
//
// Profiles are stored as JSON blobs, so partial updates are read-modify-
// write. The profile writer serializes all writes through one goroutine,
// so there is no lost-update race within a single server process.

func (s *Storage) UpdatePosition(ctx context.Context, id model.AccountID, pos model.Position) error {
	return s.updateProfile(ctx, id, func(p *model.Profile) {
		p.Position = pos
	})
}

func (s *Storage) UpdateNickname(ctx context.Context, id model.AccountID, nickname string) error {
	return s.updateProfile(ctx, id, func(p *model.Profile) {
		p.Nickname = nickname
	})
}

func (s *Storage) UpdateAvatar(ctx context.Context, id model.AccountID, avatarID string) error {
	return s.updateProfile(ctx, id, func(p *model.Profile) {
		p.AvatarID = avatarID
	})
}

func (s *Storage) TouchLastLogin(ctx context.Context, id model.AccountID, at time.Time) error {
	return s.updateProfile(ctx, id, func(p *model.Profile) {
		p.LastLogin = at
	})
}

func (s *Storage) updateProfile(ctx context.Context, id model.AccountID, apply func(*model.Profile)) error {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	apply(profile)
	return s.SaveProfile(ctx, profile)
}
