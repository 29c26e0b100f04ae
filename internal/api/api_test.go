package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonworld-game/server/internal/api"
	"github.com/dragonworld-game/server/internal/api/response"
	"github.com/dragonworld-game/server/internal/factory"
	"github.com/dragonworld-game/server/internal/model"
	"github.com/dragonworld-game/server/internal/testutil"
	"github.com/dragonworld-game/server/internal/ws"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	app.MockRandom.QueueString("AAAA", "BBBB", "CCCC", "DDDD")

	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: app.AuthService,
		Router:      app.Router,
		Hub:         app.Hub,
		WsConfig:    ws.DefaultConfig(),
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, username, password string) response.AuthResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registered := ts.register(t, "alice", "secret123")
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice", registered.Profile.Nickname)

	rr := ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "alice",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var login response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, registered.Profile.AccountID, login.Profile.AccountID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "secret123")

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "alice",
		"password": "other-secret",
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "USERNAME_EXISTS")
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "al",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "alice",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "secret123")

	rr := ts.request(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice", "secret123")

	rr := ts.request(http.MethodGet, "/api/v1/me", nil, registered.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, registered.Profile.AccountID, profile.AccountID)
	assert.Equal(t, "alice", profile.Nickname)
}

func TestGetMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateNickname(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice", "secret123")

	rr := ts.request(http.MethodPost, "/api/v1/update-nickname", map[string]string{
		"nickname": "Skyfire",
	}, registered.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var profile response.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, "Skyfire", profile.Nickname)
}

func TestUpdateNicknameRejectsInvalid(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice", "secret123")

	rr := ts.request(http.MethodPost, "/api/v1/update-nickname", map[string]string{
		"nickname": "x",
	}, registered.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_NICKNAME")
}

func TestOnlineUsers(t *testing.T) {
	ts := newTestServer(t)

	// Empty world
	rr := ts.request(http.MethodGet, "/api/v1/online-users", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var listing response.OnlineUsersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	assert.Equal(t, 0, listing.Count)

	// Simulate a live connection through the router.
	ts.app.Router.Connect(model.ConnectionID("conn-1"))

	rr = ts.request(http.MethodGet, "/api/v1/online-users", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)
	require.Len(t, listing.Users, 1)
	assert.Equal(t, "conn-1", listing.Users[0].UserID)
}
