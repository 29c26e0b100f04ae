package storage

import (
	"context"
	"time"

	"github.com/dragonworld-game/server/internal/model"
)

// ProfileStore defines the interface for durable per-account persistence.
// The sync core treats it as an external collaborator: reads happen on
// login and session rehydration, writes arrive through the best-effort
// profile writer and may be lost on failure.
type ProfileStore interface {
	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.AccountID) (*model.Profile, error)

	// Credential operations
	SaveCredential(ctx context.Context, cred *model.Credential) error
	GetCredential(ctx context.Context, id model.AccountID) (*model.Credential, error)
	GetCredentialByUsername(ctx context.Context, username string) (*model.Credential, error)

	// Partial profile updates used by the write-through path
	UpdatePosition(ctx context.Context, id model.AccountID, pos model.Position) error
	UpdateNickname(ctx context.Context, id model.AccountID, nickname string) error
	UpdateAvatar(ctx context.Context, id model.AccountID, avatarID string) error
	TouchLastLogin(ctx context.Context, id model.AccountID, at time.Time) error
}
