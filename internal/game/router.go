package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/dragonworld-game/server/internal/model"
)

// TokenVerifier checks a bearer token and returns the account it belongs
// to. Implemented by the auth service.
type TokenVerifier interface {
	VerifyToken(token string) (model.AccountID, error)
}

// ProfileWriter accepts best-effort durable writes for authenticated
// sessions. Implementations must never block: a slow or failing profile
// store cannot be allowed to delay a broadcast.
type ProfileWriter interface {
	RecordPosition(accountID model.AccountID, pos model.Position)
	RecordAvatar(accountID model.AccountID, avatarID string)
	RecordNickname(accountID model.AccountID, nickname string)
	RecordLogin(accountID model.AccountID)
}

// ProfileReader loads a durable profile for session rehydration.
type ProfileReader interface {
	GetProfile(ctx context.Context, id model.AccountID) (*model.Profile, error)
}

// Router is the single point where inbound events are interpreted, session
// and ledger state is mutated, and fan-out is decided. It is transport
// agnostic: handlers return Outbound values tagged with a fan-out policy
// and the hub applies them.
type Router struct {
	registry *Registry
	ledger   *Ledger
	verifier TokenVerifier
	profiles ProfileWriter
	reader   ProfileReader
	logger   *slog.Logger
}

// NewRouter creates an event router over the given stores and collaborators.
func NewRouter(registry *Registry, ledger *Ledger, verifier TokenVerifier, profiles ProfileWriter, reader ProfileReader, logger *slog.Logger) *Router {
	return &Router{
		registry: registry,
		ledger:   ledger,
		verifier: verifier,
		profiles: profiles,
		reader:   reader,
		logger:   logger.With(slog.String("component", "router")),
	}
}

// Registry exposes the session registry for read-only collaborators
// (the online-users endpoint).
func (r *Router) Registry() *Registry {
	return r.registry
}

// Connect creates a defaulted session for a newly accepted connection and
// returns the join replay: the new connection's own identity, the session
// snapshot of everyone else, and the collectible ledger. The snapshot is
// taken before the session is inserted so the joiner never sees itself.
func (r *Router) Connect(id model.ConnectionID) []Outbound {
	others := r.registry.Snapshot(id)
	session := r.registry.Upsert(id, model.SessionPatch{})

	users := make([]UserState, 0, len(others))
	for _, s := range others {
		users = append(users, userStateFrom(s))
	}

	r.logger.Info("connection joined",
		slog.String("connection_id", string(id)),
		slog.Int("live_sessions", r.registry.Len()))

	return []Outbound{
		{Policy: FanoutSenderOnly, Event: EventUserConnected, Payload: UserConnectedPayload{
			UserID:   string(id),
			Position: session.Position,
			Nickname: session.Nickname,
		}},
		{Policy: FanoutSenderOnly, Event: EventUsersState, Payload: UsersStatePayload{Users: users}},
		{Policy: FanoutSenderOnly, Event: EventCollectiblesState, Payload: CollectiblesStatePayload{
			Collectibles: r.ledger.Records(),
		}},
	}
}

// Disconnect purges the session for id and notifies the remaining
// connections. Safe to call more than once: only the call that actually
// removed the session produces the broadcast, so every other live
// connection observes exactly one user_disconnected per departure.
func (r *Router) Disconnect(id model.ConnectionID) []Outbound {
	if !r.registry.Remove(id) {
		return nil
	}

	r.logger.Info("connection left",
		slog.String("connection_id", string(id)),
		slog.Int("live_sessions", r.registry.Len()))

	return []Outbound{
		{Policy: FanoutExcludeSender, Event: EventUserDisconnected, Payload: UserDisconnectedPayload{
			UserID: string(id),
		}},
	}
}

// Dispatch interprets one inbound event from senderID and returns the
// outbound events to deliver. Malformed or unknown events never fault the
// connection: they produce a sender-only rejection and nothing else.
func (r *Router) Dispatch(ctx context.Context, senderID model.ConnectionID, env Envelope) []Outbound {
	switch env.Event {
	case EventAuthenticate:
		return r.handleAuthenticate(ctx, senderID, env.Data)
	case EventPositionUpdate:
		return r.handlePositionUpdate(senderID, env.Data)
	case EventDragonSelected:
		return r.handleDragonSelected(senderID, env.Data)
	case EventNicknameUpdate:
		return r.handleNicknameUpdate(senderID, env.Data)
	case EventScoreUpdate:
		return r.handleScoreUpdate(senderID, env.Data)
	case EventCollectibleCollected:
		return r.handleCollectibleCollected(senderID, env.Data)
	case EventChatMessage:
		return r.handleChatMessage(senderID, env.Data)
	default:
		return reject(env.Event, "unknown event")
	}
}

func (r *Router) handleAuthenticate(ctx context.Context, senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p AuthenticatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventAuthenticate, "malformed payload")
	}
	if p.Token == "" {
		return reject(EventAuthenticate, "token is required")
	}

	accountID, err := r.verifier.VerifyToken(p.Token)
	if err != nil {
		return reject(EventAuthenticate, "invalid token")
	}

	patch := model.SessionPatch{AccountID: &accountID}
	profile, err := r.reader.GetProfile(ctx, accountID)
	switch {
	case err == nil:
		patch.Position = &profile.Position
		if profile.Nickname != "" {
			patch.Nickname = &profile.Nickname
		}
		if profile.AvatarID != "" {
			patch.AvatarID = &profile.AvatarID
		}
	case !errors.Is(err, model.ErrProfileNotFound):
		// The account is still bound; rehydration is best-effort.
		r.logger.Warn("profile rehydration failed",
			slog.String("account_id", string(accountID)),
			slog.Any("error", err))
	}

	session := r.registry.Upsert(senderID, patch)
	r.profiles.RecordLogin(accountID)

	return []Outbound{
		{Policy: FanoutSenderOnly, Event: EventAuthenticated, Payload: AuthenticatedPayload{
			UserID:   string(senderID),
			Nickname: session.Nickname,
			Position: session.Position,
			DragonID: session.AvatarID,
		}},
		{Policy: FanoutExcludeSender, Event: EventUserMoved, Payload: UserMovedPayload{
			UserID:   string(senderID),
			X:        session.Position.X,
			Y:        session.Position.Y,
			DragonID: session.AvatarID,
			Nickname: session.Nickname,
		}},
	}
}

func (r *Router) handlePositionUpdate(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p PositionUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventPositionUpdate, "malformed payload")
	}
	if p.X == nil || p.Y == nil {
		return reject(EventPositionUpdate, "x and y are required")
	}

	patch := model.SessionPatch{Position: &model.Position{X: *p.X, Y: *p.Y}}
	if p.DragonID != nil && *p.DragonID != "" {
		patch.AvatarID = p.DragonID
	}
	// A nickname riding along on a position update is applied only when it
	// passes the same bounds as an explicit nickname_update; an invalid one
	// is ignored rather than rejected so the movement still lands.
	if p.Nickname != nil && model.ValidNickname(*p.Nickname) {
		patch.Nickname = p.Nickname
	}
	if p.Score != nil && *p.Score >= 0 {
		patch.Score = p.Score
	}

	session := r.registry.Upsert(senderID, patch)

	if session.AccountID != "" {
		r.profiles.RecordPosition(session.AccountID, session.Position)
	}

	return []Outbound{
		{Policy: FanoutExcludeSender, Event: EventUserMoved, Payload: UserMovedPayload{
			UserID:   string(senderID),
			X:        session.Position.X,
			Y:        session.Position.Y,
			DragonID: session.AvatarID,
			Nickname: session.Nickname,
			Score:    p.Score,
		}},
	}
}

func (r *Router) handleDragonSelected(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p DragonSelectedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventDragonSelected, "malformed payload")
	}
	if p.DragonID == "" {
		return reject(EventDragonSelected, "dragonId is required")
	}

	session := r.registry.Upsert(senderID, model.SessionPatch{AvatarID: &p.DragonID})

	if session.AccountID != "" {
		r.profiles.RecordAvatar(session.AccountID, p.DragonID)
	}

	return []Outbound{
		{Policy: FanoutExcludeSender, Event: EventDragonSelected, Payload: DragonSelectedBroadcast{
			UserID:   string(senderID),
			DragonID: p.DragonID,
		}},
	}
}

func (r *Router) handleNicknameUpdate(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p NicknameUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventNicknameUpdate, "malformed payload")
	}
	if !model.ValidNickname(p.Nickname) {
		return reject(EventNicknameUpdate, model.ErrInvalidNickname.Error())
	}

	session := r.registry.Upsert(senderID, model.SessionPatch{Nickname: &p.Nickname})

	if session.AccountID != "" {
		r.profiles.RecordNickname(session.AccountID, p.Nickname)
	}

	return []Outbound{
		{Policy: FanoutExcludeSender, Event: EventNicknameUpdate, Payload: NicknameUpdateBroadcast{
			UserID:   string(senderID),
			Nickname: p.Nickname,
		}},
	}
}

func (r *Router) handleScoreUpdate(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p ScoreUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventScoreUpdate, "malformed payload")
	}
	if p.Score == nil {
		return reject(EventScoreUpdate, "score is required")
	}
	if *p.Score < 0 {
		return reject(EventScoreUpdate, "score must be non-negative")
	}

	// Last write wins; a lower score than before is accepted.
	r.registry.Upsert(senderID, model.SessionPatch{Score: p.Score})

	return []Outbound{
		{Policy: FanoutExcludeSender, Event: EventScoreUpdate, Payload: ScoreUpdateBroadcast{
			UserID: string(senderID),
			Score:  *p.Score,
		}},
	}
}

func (r *Router) handleCollectibleCollected(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p CollectiblePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventCollectibleCollected, "malformed payload")
	}
	if p.X == nil || p.Y == nil {
		return reject(EventCollectibleCollected, "x and y are required")
	}

	session := r.registry.Upsert(senderID, model.SessionPatch{})

	itemID := DeriveItemKey(*p.X, *p.Y)
	record, created := r.ledger.MarkCollected(itemID, session.Nickname)
	if !created {
		r.logger.Debug("duplicate collection ignored by ledger",
			slog.String("item_id", itemID),
			slog.String("connection_id", string(senderID)))
	}

	// Broadcast even when the ledger already had the item: downstream
	// handling is idempotent and every client converges on the first
	// collector either way.
	return []Outbound{
		{Policy: FanoutAll, Event: EventCollectibleCollected, Payload: CollectibleCollectedBroadcast{
			ItemID:      record.ItemID,
			X:           *p.X,
			Y:           *p.Y,
			CollectedBy: record.CollectedBy,
		}},
	}
}

func (r *Router) handleChatMessage(senderID model.ConnectionID, data json.RawMessage) []Outbound {
	var p ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return reject(EventChatMessage, "malformed payload")
	}
	if strings.TrimSpace(p.Message) == "" {
		return reject(EventChatMessage, "message is required")
	}

	session := r.registry.Upsert(senderID, model.SessionPatch{})

	nickname := p.Nickname
	if nickname == "" {
		nickname = session.Nickname
	}

	// Chat is not synchronized world state; it only shares the router for
	// its fan-out-all policy.
	return []Outbound{
		{Policy: FanoutAll, Event: EventChatMessage, Payload: ChatMessageBroadcast{
			UserID:   string(senderID),
			Nickname: nickname,
			Message:  p.Message,
			X:        p.X,
			Y:        p.Y,
		}},
	}
}

func reject(event, reason string) []Outbound {
	return []Outbound{
		{Policy: FanoutSenderOnly, Event: EventRejected, Payload: RejectedPayload{
			Event:  event,
			Reason: reason,
		}},
	}
}

func userStateFrom(s model.Session) UserState {
	return UserState{
		UserID:   string(s.ConnectionID),
		X:        s.Position.X,
		Y:        s.Position.Y,
		Nickname: s.Nickname,
		DragonID: s.AvatarID,
		Score:    s.Score,
	}
}
