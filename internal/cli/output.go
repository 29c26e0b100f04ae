package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case AuthResult:
		o.printAuthResult(v)
	case OnlineUsers:
		o.printOnlineUsers(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Position response type (matches API)
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Profile response type
type Profile struct {
	AccountID string    `json:"account_id"`
	Nickname  string    `json:"nickname"`
	Position  Position  `json:"position"`
	AvatarID  string    `json:"avatar_id,omitempty"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult combines token and profile
type AuthResult struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// OnlineUser response type
type OnlineUser struct {
	UserID   string  `json:"user_id"`
	Nickname string  `json:"nickname"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	AvatarID string  `json:"avatar_id,omitempty"`
	Score    int     `json:"score"`
}

// OnlineUsers response type
type OnlineUsers struct {
	Count int          `json:"count"`
	Users []OnlineUser `json:"users"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Account: %s (%s)\n", p.Nickname, p.AccountID)
	fmt.Printf("Position: (%g, %g)\n", p.Position.X, p.Position.Y)
	if p.AvatarID != "" {
		fmt.Printf("Dragon: %s\n", p.AvatarID)
	}
	if !p.LastLogin.IsZero() {
		fmt.Printf("Last Login: %s\n", p.LastLogin.Format(time.RFC3339))
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printProfile(a.Profile)
	fmt.Printf("Token: %s\n", a.Token)
}

func (o *Output) printOnlineUsers(u OnlineUsers) {
	fmt.Printf("Online (%d):\n", u.Count)
	for _, user := range u.Users {
		dragon := ""
		if user.AvatarID != "" {
			dragon = " riding " + user.AvatarID
		}
		fmt.Printf("  - %s at (%g, %g)%s, score %d\n", user.Nickname, user.X, user.Y, dragon, user.Score)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
