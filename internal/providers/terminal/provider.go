package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell"
)

// Provider exposes shell sessions as a service.
type Provider struct {
	manager *Manager
}

// NewProvider creates a new terminal provider
func NewProvider(manager *Manager) *Provider {
	return &Provider{manager: manager}
}

// Manager returns the session manager behind the provider.
func (p *Provider) Manager() *Manager {
	return p.manager
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "Interactive fastcode shell sessions over a virtual filesystem",
		Category:    types.CategoryTerminal,
		Capabilities: []string{
			"shell",
			"interactive",
			"sessions",
			"completion",
			"typing",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "terminal.create_session":
		return p.createSession(ctx, params)
	case "terminal.list_sessions":
		return p.listSessions()
	}

	sess, err := p.session(params, appCtx)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidSessionID) {
			return types.Failure(err.Error())
		}
		return nil, err
	}

	switch toolID {
	case "terminal.submit":
		line := types.String(params, "line")
		if err := utils.ValidateLine(line); err != nil {
			return types.Failure(err.Error())
		}
		return snapshotResult(sess.Submit(line))
	case "terminal.complete":
		input := types.String(params, "input")
		if err := utils.ValidateLine(input); err != nil {
			return types.Failure(err.Error())
		}
		return snapshotResult(sess.Complete(input))
	case "terminal.type":
		text := types.String(params, "text")
		if text == "" {
			return types.Failure("text is required")
		}
		if err := utils.ValidateLine(text); err != nil {
			return types.Failure(err.Error())
		}
		return snapshotResult(sess.Type(text, types.Bool(params, "suppress")))
	case "terminal.interrupt":
		return snapshotResult(sess.Interrupt())
	case "terminal.history":
		snap, err := sess.Snapshot()
		if err != nil {
			return types.Failure(err.Error())
		}
		return types.Success(map[string]interface{}{
			"entries": snap.Entries,
			"count":   len(snap.Entries),
		})
	case "terminal.get_session":
		info, err := sess.Info()
		if err != nil {
			return types.Failure(err.Error())
		}
		return types.Success(map[string]interface{}{"session": info})
	case "terminal.kill":
		if err := p.manager.Kill(sess.ID.String()); err != nil {
			return types.Failure(err.Error())
		}
		return types.Success(map[string]interface{}{"killed": true})
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

// session resolves session_id from params, falling back to the caller's
// session.
func (p *Provider) session(params map[string]interface{}, appCtx *types.Context) (*Session, error) {
	sessionID := types.String(params, "session_id")
	if sessionID == "" && appCtx != nil && appCtx.SessionID != nil {
		sessionID = *appCtx.SessionID
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrInvalidSessionID)
	}
	return p.manager.Get(sessionID)
}

func (p *Provider) createSession(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	boot := true
	if v, ok := params["boot"].(bool); ok {
		boot = v
	}

	sess, err := p.manager.CreateSession(ctx, types.String(params, "token"), boot)
	if errors.Is(err, ErrTooManySessions) {
		return types.Failure(err.Error())
	}
	if err != nil {
		return nil, err
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{
		"session_id": sess.ID.String(),
		"snapshot":   snap,
	})
}

func (p *Provider) listSessions() (*types.Result, error) {
	sessions := p.manager.List()
	return types.Success(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func snapshotResult(snap shell.Snapshot, err error) (*types.Result, error) {
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"snapshot": snap})
}

func (p *Provider) getTools() []types.Tool {
	sessionID := types.Parameter{Name: "session_id", Type: "string", Description: "Shell session ID", Required: true}
	return []types.Tool{
		{
			ID:          "terminal.create_session",
			Name:        "Create Shell Session",
			Description: "Open a new shell session",
			Parameters: []types.Parameter{
				{Name: "token", Type: "string", Description: "Session token of a signed-in account to restore", Required: false},
				{Name: "boot", Type: "boolean", Description: "Load the user and type the boot command. Defaults to true", Required: false},
			},
			Returns: "session_snapshot",
		},
		{
			ID:          "terminal.submit",
			Name:        "Submit Line",
			Description: "Run a command line in a session",
			Parameters: []types.Parameter{
				sessionID,
				{Name: "line", Type: "string", Description: "Command line", Required: true},
			},
			Returns: "snapshot",
		},
		{
			ID:          "terminal.complete",
			Name:        "Complete Line",
			Description: "Tab-complete a partial command line",
			Parameters: []types.Parameter{
				sessionID,
				{Name: "input", Type: "string", Description: "Partial command line", Required: true},
			},
			Returns: "snapshot",
		},
		{
			ID:          "terminal.type",
			Name:        "Type Text",
			Description: "Type text into the prompt with the typing animation",
			Parameters: []types.Parameter{
				sessionID,
				{Name: "text", Type: "string", Description: "Text to type", Required: true},
				{Name: "suppress", Type: "boolean", Description: "Leave the text on the prompt instead of running it", Required: false},
			},
			Returns: "snapshot",
		},
		{
			ID:          "terminal.interrupt",
			Name:        "Interrupt",
			Description: "Stop the running program, typing or project composition",
			Parameters:  []types.Parameter{sessionID},
			Returns:     "snapshot",
		},
		{
			ID:          "terminal.history",
			Name:        "Session History",
			Description: "Return every entry the session recorded",
			Parameters:  []types.Parameter{sessionID},
			Returns:     "entries",
		},
		{
			ID:          "terminal.get_session",
			Name:        "Get Session",
			Description: "Describe a session",
			Parameters:  []types.Parameter{sessionID},
			Returns:     "session_info",
		},
		{
			ID:          "terminal.list_sessions",
			Name:        "List Sessions",
			Description: "List all live sessions",
			Parameters:  []types.Parameter{},
			Returns:     "array",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Session",
			Description: "Close a session",
			Parameters:  []types.Parameter{sessionID},
			Returns:     "boolean",
		},
	}
}
