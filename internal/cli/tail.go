package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newTailCmd() *cobra.Command {
	var jsonOutput bool
	var authenticate bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail the live world event stream",
		Long: `Connect to the server's websocket endpoint and print events as they arrive.

Events include:
  - user_connected: Someone joined the world
  - users_state: Snapshot of everyone already present
  - collectibles_state: Snapshot of collected items
  - user_moved: Someone moved, changed dragon, nickname, or score
  - user_disconnected: Someone left the world
  - chat_message: Chat broadcast

With --auth the session authenticates using the stored token, so the
connection shows up under your account's nickname.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tailEvents(jsonOutput, authenticate)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&authenticate, "auth", false, "Authenticate the session with the stored token")

	return cmd
}

// TailedEvent is a received event with its arrival time
type TailedEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wireEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func tailEvents(jsonOutput, authenticate bool) error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if authenticate {
		if cfg.Token == "" {
			return fmt.Errorf("no token available, login first or pass --token")
		}
		auth := wireEnvelope{Event: "authenticate"}
		auth.Data, _ = json.Marshal(map[string]string{"token": cfg.Token})
		if err := conn.WriteJSON(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", wsURL)
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}()

	for {
		var env wireEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			if strings.Contains(err.Error(), "use of closed network connection") {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printEvent(env, jsonOutput)
	}
}

// websocketURL translates the configured HTTP base URL into the /ws endpoint.
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = u.Path + "/ws"
	return u.String(), nil
}

func printEvent(env wireEnvelope, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := TailedEvent{
			Time:  now,
			Event: env.Event,
			Data:  env.Data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	displayData := string(env.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	fmt.Printf("[%s] %s: %s\n", timestamp, env.Event, displayData)
}
