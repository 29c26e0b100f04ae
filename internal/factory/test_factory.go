package factory

import (
	"time"

	"github.com/dragonworld-game/server/internal/dependencies/mocks"
	"github.com/dragonworld-game/server/internal/services/auth"
	"github.com/dragonworld-game/server/internal/services/profile"
	"github.com/dragonworld-game/server/internal/storage/memory"
	"github.com/dragonworld-game/server/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"

	app := newWithDependencies(store, mockClock, mockRandom, authCfg, profile.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
