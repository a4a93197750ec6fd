package types

import "time"

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID    string                 `json:"tool_id" binding:"required"`
	Params    map[string]interface{} `json:"params"`
	SessionID *string                `json:"session_id,omitempty"`
}

// CreateSessionRequest opens a shell session. Token restores a signed-in
// account from an earlier session.
type CreateSessionRequest struct {
	Token string `json:"token,omitempty"`
	// Boot runs the boot command, typed into the prompt. Defaults to true.
	Boot *bool `json:"boot,omitempty"`
}

// InputRequest submits a command line.
type InputRequest struct {
	Line string `json:"line"`
}

// CompleteRequest asks for tab completion of a partial line.
type CompleteRequest struct {
	Input string `json:"input"`
}

// TypeRequest types text into the prompt with the typing animation.
type TypeRequest struct {
	Text     string `json:"text" binding:"required"`
	Suppress bool   `json:"suppress"`
}

// SessionInfo summarizes a live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	User      string    `json:"user,omitempty"`
	Cwd       string    `json:"cwd"`
	State     string    `json:"state"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// WSMessage is a message sent by a websocket client.
type WSMessage struct {
	Type    string `json:"type"`
	Line    string `json:"line,omitempty"`
	Text    string `json:"text,omitempty"`
	Command string `json:"command,omitempty"`
	Run     bool   `json:"run,omitempty"`
}

// WSEvent is a message pushed to a websocket client.
type WSEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DiscoverRequest asks the registry for services matching an intent.
type DiscoverRequest struct {
	Intent string `json:"intent" binding:"required"`
	Limit  int    `json:"limit"`
}
