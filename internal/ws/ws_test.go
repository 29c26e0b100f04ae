package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/dragonworld-game/server/internal/dependencies/clock"
	"github.com/dragonworld-game/server/internal/dependencies/random"
	"github.com/dragonworld-game/server/internal/game"
	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/testutil"
)

type noopVerifier struct{}

func (noopVerifier) VerifyToken(string) (model.AccountID, error) {
	return "", errors.New("no verifier in test")
}

type noopWriter struct{}

func (noopWriter) RecordPosition(model.AccountID, model.Position) {}
func (noopWriter) RecordAvatar(model.AccountID, string)           {}
func (noopWriter) RecordNickname(model.AccountID, string)         {}
func (noopWriter) RecordLogin(model.AccountID)                    {}

type noopReader struct{}

func (noopReader) GetProfile(context.Context, model.AccountID) (*model.Profile, error) {
	return nil, model.ErrProfileNotFound
}

type WsSuite struct {
	suite.Suite
	server *httptest.Server
	hub    *Hub
}

func TestWsSuite(t *testing.T) {
	suite.Run(t, new(WsSuite))
}

func (s *WsSuite) SetupTest() {
	logger := testutil.NopLogger()
	registry := game.NewRegistry(clock.New(), random.New())
	ledger := game.NewLedger(clock.New())
	router := game.NewRouter(registry, ledger, noopVerifier{}, noopWriter{}, noopReader{}, logger)
	s.hub = NewHub(router, logger)

	cfg := DefaultConfig()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(s.hub, logger, cfg, w, r)
	})
	s.server = httptest.NewServer(mux)
}

func (s *WsSuite) TearDownTest() {
	s.server.Close()
}

func (s *WsSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	return conn
}

func (s *WsSuite) send(conn *websocket.Conn, event string, payload any) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	frame, err := json.Marshal(game.Envelope{Event: event, Data: data})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, frame))
}

// waitFor reads frames until it sees the named event, failing the test if
// it does not arrive in time.
func (s *WsSuite) waitFor(conn *websocket.Conn, event string) game.Envelope {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.Require().NoError(conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err)

		var env game.Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		if env.Event == event {
			return env
		}
	}
	s.Require().Failf("timed out", "never received %s", event)
	return game.Envelope{}
}

func (s *WsSuite) TestJoinReplaySequence() {
	conn := s.dial()
	defer conn.Close()

	welcome := s.waitFor(conn, game.EventUserConnected)
	var connected game.UserConnectedPayload
	s.Require().NoError(json.Unmarshal(welcome.Data, &connected))
	s.NotEmpty(connected.UserID)
	s.Equal(model.DefaultPosition, connected.Position)

	state := s.waitFor(conn, game.EventUsersState)
	var users game.UsersStatePayload
	s.Require().NoError(json.Unmarshal(state.Data, &users))
	s.Empty(users.Users)

	items := s.waitFor(conn, game.EventCollectiblesState)
	var collectibles game.CollectiblesStatePayload
	s.Require().NoError(json.Unmarshal(items.Data, &collectibles))
	s.Empty(collectibles.Collectibles)
}

func (s *WsSuite) TestMovementReachesOtherConnectionOnly() {
	connA := s.dial()
	defer connA.Close()
	s.waitFor(connA, game.EventCollectiblesState)

	connB := s.dial()
	defer connB.Close()
	s.waitFor(connB, game.EventCollectiblesState)

	s.send(connA, game.EventPositionUpdate, map[string]any{"x": 42.0, "y": 7.0})

	moved := s.waitFor(connB, game.EventUserMoved)
	var payload game.UserMovedPayload
	s.Require().NoError(json.Unmarshal(moved.Data, &payload))
	s.Equal(42.0, payload.X)
	s.Equal(7.0, payload.Y)

	// The sender hears nothing back for its own movement. Prove it by
	// sending a chat message (fan-out-all) and checking it is the next
	// frame A receives.
	s.send(connA, game.EventChatMessage, map[string]any{"message": "marker"})
	env := s.waitFor(connA, game.EventChatMessage)
	s.Equal(game.EventChatMessage, env.Event)
}

func (s *WsSuite) TestCollectibleBroadcastIncludesSender() {
	connA := s.dial()
	defer connA.Close()
	s.waitFor(connA, game.EventCollectiblesState)

	connB := s.dial()
	defer connB.Close()
	s.waitFor(connB, game.EventCollectiblesState)

	s.send(connA, game.EventCollectibleCollected, map[string]any{"x": 100.0, "y": 200.0})

	for _, conn := range []*websocket.Conn{connA, connB} {
		env := s.waitFor(conn, game.EventCollectibleCollected)
		var payload game.CollectibleCollectedBroadcast
		s.Require().NoError(json.Unmarshal(env.Data, &payload))
		s.Equal("100_200", payload.ItemID)
	}
}

func (s *WsSuite) TestDisconnectNotifiesRemaining() {
	connA := s.dial()
	s.waitFor(connA, game.EventCollectiblesState)

	connB := s.dial()
	defer connB.Close()
	s.waitFor(connB, game.EventCollectiblesState)

	s.Require().NoError(connA.Close())

	env := s.waitFor(connB, game.EventUserDisconnected)
	var payload game.UserDisconnectedPayload
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.NotEmpty(payload.UserID)
}

func (s *WsSuite) TestMalformedEventRejectedToSenderOnly() {
	conn := s.dial()
	defer conn.Close()
	s.waitFor(conn, game.EventCollectiblesState)

	s.send(conn, "not_a_real_event", map[string]any{})

	env := s.waitFor(conn, game.EventRejected)
	var payload game.RejectedPayload
	s.Require().NoError(json.Unmarshal(env.Data, &payload))
	s.Equal("not_a_real_event", payload.Event)
}
