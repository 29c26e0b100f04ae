package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUsernameTooShort   = errors.New("username must be at least 3 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// LoginResult is a successful registration or login: a signed bearer token
// plus the account's durable profile.
type LoginResult struct {
	Token   string
	Profile *model.Profile
}

// Service handles account registration, login, and token verification.
// Tokens are stateless HS256 JWTs so verification never touches storage.
type Service struct {
	storage storage.ProfileStore
	clock   clock.Clock

	secret   []byte
	tokenTTL time.Duration
	issuer   string
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs and verifies tokens. Must be non-empty in production.
	Secret string

	TokenTTL time.Duration
	Issuer   string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
		Issuer:   "dragonworld",
	}
}

// New creates a new auth Service
func New(store storage.ProfileStore, clk clock.Clock, cfg Config) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultConfig().Issuer
	}
	return &Service{
		storage:  store,
		clock:    clk,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
		issuer:   cfg.Issuer,
	}
}

// Register creates an account with the given credentials and an empty
// profile, and returns a token for the new account.
func (s *Service) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	if len(username) < minUsernameLen {
		return nil, ErrUsernameTooShort
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	_, err := s.storage.GetCredentialByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrCredentialNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	accountID := model.AccountID(uuid.NewString())
	now := s.clock.Now()

	cred := &model.Credential{
		AccountID:    accountID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	profile := &model.Profile{
		AccountID: accountID,
		Nickname:  username,
		Position:  model.DefaultPosition,
		LastLogin: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveCredential(ctx, cred); err != nil {
		return nil, err
	}
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	token, err := s.signToken(accountID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Profile: profile}, nil
}

// Login authenticates a username and password and returns a fresh token
// and the account's profile. The profile's last login time is stamped.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	cred, err := s.storage.GetCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.storage.TouchLastLogin(ctx, cred.AccountID, now); err != nil {
		return nil, err
	}

	profile, err := s.storage.GetProfile(ctx, cred.AccountID)
	if err != nil {
		return nil, err
	}

	token, err := s.signToken(cred.AccountID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Profile: profile}, nil
}

// VerifyToken checks a bearer token's signature and expiry and returns the
// account it was issued to.
func (s *Service) VerifyToken(token string) (model.AccountID, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return model.AccountID(claims.Subject), nil
}

// UpdateNickname validates and saves a new display name on the account's
// durable profile.
func (s *Service) UpdateNickname(ctx context.Context, accountID model.AccountID, nickname string) error {
	if !model.ValidNickname(nickname) {
		return model.ErrInvalidNickname
	}
	return s.storage.UpdateNickname(ctx, accountID, nickname)
}

// GetProfile loads the account's durable profile.
func (s *Service) GetProfile(ctx context.Context, accountID model.AccountID) (*model.Profile, error) {
	return s.storage.GetProfile(ctx, accountID)
}

func (s *Service) signToken(accountID model.AccountID) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(accountID),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
