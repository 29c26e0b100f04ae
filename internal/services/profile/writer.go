package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/storage"
)

// Writer applies profile mutations from authenticated sessions to durable
// storage, best effort. Mutations are queued and drained by a single
// goroutine so a slow store never blocks the event path, and writes for
// one account are applied in the order they were enqueued. When the queue
// is full the mutation is dropped: live broadcast state is authoritative
// and the profile just lags.
type Writer struct {
	storage storage.ProfileStore
	clock   clock.Clock
	logger  *slog.Logger

	queue        chan mutation
	writeTimeout time.Duration
}

// Config holds configuration for the profile writer
type Config struct {
	QueueSize    int
	WriteTimeout time.Duration
}

// DefaultConfig returns default profile writer configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}

type mutation struct {
	name      string
	accountID model.AccountID
	apply     func(ctx context.Context) error
}

// NewWriter creates a profile writer. Call Run to start draining.
func NewWriter(store storage.ProfileStore, clk clock.Clock, logger *slog.Logger, cfg Config) *Writer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Writer{
		storage:      store,
		clock:        clk,
		logger:       logger.With(slog.String("component", "profile_writer")),
		queue:        make(chan mutation, cfg.QueueSize),
		writeTimeout: cfg.WriteTimeout,
	}
}

// Run drains the queue until ctx is cancelled. Intended to be started once
// as its own goroutine.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-w.queue:
			w.write(ctx, m)
		}
	}
}

// RecordPosition queues a position write for the account.
func (w *Writer) RecordPosition(accountID model.AccountID, pos model.Position) {
	w.enqueue(mutation{
		name:      "position",
		accountID: accountID,
		apply: func(ctx context.Context) error {
			return w.storage.UpdatePosition(ctx, accountID, pos)
		},
	})
}

// RecordAvatar queues an avatar write for the account.
func (w *Writer) RecordAvatar(accountID model.AccountID, avatarID string) {
	w.enqueue(mutation{
		name:      "avatar",
		accountID: accountID,
		apply: func(ctx context.Context) error {
			return w.storage.UpdateAvatar(ctx, accountID, avatarID)
		},
	})
}

// RecordNickname queues a nickname write for the account.
func (w *Writer) RecordNickname(accountID model.AccountID, nickname string) {
	w.enqueue(mutation{
		name:      "nickname",
		accountID: accountID,
		apply: func(ctx context.Context) error {
			return w.storage.UpdateNickname(ctx, accountID, nickname)
		},
	})
}

// RecordLogin queues a last-login stamp for the account.
func (w *Writer) RecordLogin(accountID model.AccountID) {
	at := w.clock.Now()
	w.enqueue(mutation{
		name:      "login",
		accountID: accountID,
		apply: func(ctx context.Context) error {
			return w.storage.TouchLastLogin(ctx, accountID, at)
		},
	})
}

func (w *Writer) enqueue(m mutation) {
	select {
	case w.queue <- m:
	default:
		w.logger.Warn("profile write dropped, queue full",
			slog.String("mutation", m.name),
			slog.String("account_id", string(m.accountID)))
	}
}

func (w *Writer) write(ctx context.Context, m mutation) {
	writeCtx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	if err := m.apply(writeCtx); err != nil {
		w.logger.Warn("profile write failed",
			slog.String("mutation", m.name),
			slog.String("account_id", string(m.accountID)),
			slog.Any("error", err))
	}
}
