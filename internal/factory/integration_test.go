package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/model"
)

// IntegrationSuite drives the fully wired app through the router,
// checking that live state, auth, and durable profiles hang together.
type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	cancel context.CancelFunc
	ctx    context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.app.MockRandom.QueueString("AAAA", "BBBB", "CCCC", "DDDD")

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.app.ProfileWriter.Run(s.ctx)
}

func (s *IntegrationSuite) TearDownTest() {
	s.cancel()
}

func (s *IntegrationSuite) dispatch(sender model.ConnectionID, event string, payload any) []game.Outbound {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	return s.app.Router.Dispatch(s.ctx, sender, game.Envelope{Event: event, Data: data})
}

func (s *IntegrationSuite) TestRegisterAuthenticateAndPersistMovement() {
	result, err := s.app.AuthService.Register(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	s.app.Router.Connect("conn-1")

	out := s.dispatch("conn-1", game.EventAuthenticate, map[string]any{"token": result.Token})
	s.Require().Len(out, 2)
	s.Equal(game.EventAuthenticated, out[0].Event)

	s.dispatch("conn-1", game.EventPositionUpdate, map[string]any{"x": 123.0, "y": 456.0})

	s.Eventually(func() bool {
		profile, err := s.app.Storage.GetProfile(context.Background(), result.Profile.AccountID)
		return err == nil && profile.Position == (model.Position{X: 123, Y: 456})
	}, time.Second, 5*time.Millisecond)
}

func (s *IntegrationSuite) TestReconnectRehydratesProfile() {
	result, err := s.app.AuthService.Register(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	// First connection: authenticate, move, pick a dragon, then leave.
	s.app.Router.Connect("conn-1")
	s.dispatch("conn-1", game.EventAuthenticate, map[string]any{"token": result.Token})
	s.dispatch("conn-1", game.EventPositionUpdate, map[string]any{"x": 50.0, "y": 60.0})
	s.dispatch("conn-1", game.EventDragonSelected, map[string]any{"dragonId": "dragon-red"})

	s.Eventually(func() bool {
		profile, err := s.app.Storage.GetProfile(context.Background(), result.Profile.AccountID)
		return err == nil && profile.AvatarID == "dragon-red"
	}, time.Second, 5*time.Millisecond)

	s.app.Router.Disconnect("conn-1")

	// Second connection authenticates and resumes where it left off.
	s.app.Router.Connect("conn-2")
	out := s.dispatch("conn-2", game.EventAuthenticate, map[string]any{"token": result.Token})

	var ack game.AuthenticatedPayload
	for _, o := range out {
		if o.Event == game.EventAuthenticated {
			ack = o.Payload.(game.AuthenticatedPayload)
		}
	}
	s.Equal(model.Position{X: 50, Y: 60}, ack.Position)
	s.Equal("dragon-red", ack.DragonID)
}

func (s *IntegrationSuite) TestAnonymousSessionLeavesNoProfile() {
	s.app.Router.Connect("conn-1")
	s.dispatch("conn-1", game.EventPositionUpdate, map[string]any{"x": 5.0, "y": 6.0})
	s.dispatch("conn-1", game.EventCollectibleCollected, map[string]any{"x": 1.0, "y": 2.0})
	s.app.Router.Disconnect("conn-1")

	// The ledger remembers the item, but no profile was ever created.
	s.Equal(1, s.app.Ledger.Len())
	s.Equal(0, s.app.Registry.Len())
}

func (s *IntegrationSuite) TestCollectiblesSurviveAcrossSessions() {
	s.app.Router.Connect("conn-1")
	s.dispatch("conn-1", game.EventCollectibleCollected, map[string]any{"x": 9.0, "y": 9.0})
	s.app.Router.Disconnect("conn-1")

	out := s.app.Router.Connect("conn-2")
	var replay game.CollectiblesStatePayload
	for _, o := range out {
		if o.Event == game.EventCollectiblesState {
			replay = o.Payload.(game.CollectiblesStatePayload)
		}
	}
	s.Require().Len(replay.Collectibles, 1)
	s.Equal("9_9", replay.Collectibles[0].ItemID)
}

func (s *IntegrationSuite) TestLoginAfterRegisterIssuesWorkingToken() {
	_, err := s.app.AuthService.Register(s.ctx, "bob", "password123")
	s.Require().NoError(err)

	login, err := s.app.AuthService.Login(s.ctx, "bob", "password123")
	s.Require().NoError(err)

	s.app.Router.Connect("conn-1")
	out := s.dispatch("conn-1", game.EventAuthenticate, map[string]any{"token": login.Token})
	s.Require().NotEmpty(out)
	s.Equal(game.EventAuthenticated, out[0].Event)
}
