package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragonworld-game/server/internal/api"
	"github.com/dragonworld-game/server/internal/factory"
	"github.com/dragonworld-game/server/internal/ws"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "dwctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dwctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create application
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go app.ProfileWriter.Run(ctx)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Router:      app.Router,
		Hub:         app.Hub,
		WsConfig:    ws.DefaultConfig(),
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type profileResponse struct {
	AccountID string `json:"account_id"`
	Nickname  string `json:"nickname"`
	Position  struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	AvatarID string `json:"avatar_id"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

type onlineUsersResponse struct {
	Count int `json:"count"`
	Users []struct {
		UserID   string  `json:"user_id"`
		Nickname string  `json:"nickname"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
	} `json:"users"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AccountCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Register an account
	output, err := cli.run("account", "register", "--user", "alice", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "alice", authResp.Profile.Nickname)
	assert.NotEmpty(t, authResp.Token)

	// Get me (token should be saved in token file)
	output, err = cli.run("account", "me")
	require.NoError(t, err, "output: %s", output)

	var profile profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "alice", profile.Nickname)
	assert.Equal(t, authResp.Profile.AccountID, profile.AccountID)

	// Change nickname
	output, err = cli.run("account", "nickname", "--name", "Skyfire")
	require.NoError(t, err, "output: %s", output)

	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "Skyfire", profile.Nickname)
}

func TestCLI_LoginFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "register", "--user", "bob", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	// Login with a fresh runner so no token is carried over
	cli2 := &cliRunner{
		binaryPath: cli.binaryPath,
		serverURL:  cli.serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token2"),
	}

	output, err = cli2.run("account", "login", "--user", "bob", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.NotEmpty(t, authResp.Token)

	output, err = cli2.runWithToken(authResp.Token, "account", "me")
	require.NoError(t, err, "output: %s", output)

	var profile profileResponse
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "bob", profile.Nickname)
}

func TestCLI_OnlineUsers(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("online")
	require.NoError(t, err, "output: %s", output)

	var resp onlineUsersResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Get profile without auth
	output, err := cli.run("account", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	// Wrong password
	output, err = cli.run("account", "register", "--user", "carol", "--pass", "secret123")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("account", "login", "--user", "carol", "--pass", "wrongpass")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "credentials")
}
