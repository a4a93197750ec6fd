package program

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	phaseKey   = "phase"
	sessionKey = "session_id"

	phaseLogin = "login"
	phaseReady = "ready"
)

// WOPRConfig points the game program at its backend.
type WOPRConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// WOPR is a text adventure played against a remote game server. The player
// must log on as "joshua" before any line reaches the server.
type WOPR struct {
	cfg    WOPRConfig
	client *http.Client
}

// NewWOPR creates the game program. Requests are retried on connection
// errors and 5xx responses only.
func NewWOPR(cfg WOPRConfig) *WOPR {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.Timeout

	return &WOPR{cfg: cfg, client: rc.StandardClient()}
}

func (w *WOPR) Name() string { return "wopr" }

// Step advances the game by one line.
func (w *WOPR) Step(line string, state State) Result {
	switch state[phaseKey] {
	case "":
		return Result{
			Output: []string{strings.Repeat(" ", 23), strings.Repeat(" ", 23), ""},
			State:  State{phaseKey: phaseLogin},
			Prompt: "LOGON:",
		}

	case phaseLogin:
		if strings.EqualFold(line, "joshua") {
			return Result{
				Output: []string{
					"LOGON SUCCESSFUL",
					"",
					"GREETINGS, PROFESSOR FALKEN.",
					"CAN YOU EXPLAIN THE REMOVAL OF YOUR USER ACCOUNT",
					"ON JUNE 23, 1973?",
				},
				State:  State{phaseKey: phaseReady},
				Prompt: "$ ",
			}
		}
		return Result{
			Output:     []string{"INDENTIFICATION NOT RECOGNIZED BY SYSTEM", "--CONNECTION TERMINATED--"},
			ExitStatus: 1,
		}

	case phaseReady:
		session := state[sessionKey]
		return Result{
			State:  state,
			Prompt: "$ ",
			Pending: func(ctx context.Context) Reply {
				return w.send(ctx, line, session)
			},
		}
	}

	return Result{Output: []string{"WOPR", "unknown command"}, ExitStatus: 1, State: state}
}

type gameRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type gameResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Detail    string `json:"detail"`
}

func (w *WOPR) send(ctx context.Context, line, session string) Reply {
	body, err := json.Marshal(gameRequest{Message: line, SessionID: session})
	if err != nil {
		return Reply{Output: []string{Disconnected}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Reply{Output: []string{Disconnected}}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", w.cfg.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return Reply{Output: []string{Disconnected}}
	}
	defer resp.Body.Close()

	var out gameResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return Reply{Output: []string{fmt.Sprintf("%s (%d)", Disconnected, resp.StatusCode)}}
	}

	if resp.StatusCode != http.StatusOK {
		return Reply{Output: []string{out.Detail}}
	}
	return Reply{
		Output: strings.Split(out.Message, "\n"),
		State:  State{sessionKey: out.SessionID},
	}
}
