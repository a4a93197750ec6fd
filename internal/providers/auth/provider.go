package auth

import (
	"context"
	"fmt"

	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Provider exposes the account directory as a service.
type Provider struct {
	dir *Directory
}

// NewProvider creates an auth provider over dir.
func NewProvider(dir *Directory) *Provider {
	return &Provider{dir: dir}
}

// Definition returns service metadata
func (a *Provider) Definition() types.Service {
	token := types.Parameter{Name: "token", Type: "string", Description: "Session token", Required: true}
	return types.Service{
		ID:          "auth",
		Name:        "Authentication Service",
		Description: "User accounts and session tokens",
		Category:    types.CategoryAuth,
		Capabilities: []string{
			"register",
			"login",
			"logout",
			"verify",
		},
		Tools: []types.Tool{
			{
				ID:          "auth.register",
				Name:        "Register User",
				Description: "Create a new user account",
				Parameters: []types.Parameter{
					{Name: "username", Type: "string", Description: "Username", Required: true},
					{Name: "email", Type: "string", Description: "Email address", Required: true},
					{Name: "password", Type: "string", Description: "Password", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "auth.login",
				Name:        "Login",
				Description: "Authenticate and issue a session token",
				Parameters: []types.Parameter{
					{Name: "email", Type: "string", Description: "Email address", Required: true},
					{Name: "password", Type: "string", Description: "Password", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "auth.logout",
				Name:        "Logout",
				Description: "Revoke a session token",
				Parameters:  []types.Parameter{token},
				Returns:     "boolean",
			},
			{
				ID:          "auth.verify",
				Name:        "Verify Token",
				Description: "Check if a session token is valid",
				Parameters:  []types.Parameter{token},
				Returns:     "object",
			},
			{
				ID:          "auth.getUser",
				Name:        "Get Current User",
				Description: "Get the account behind a session token",
				Parameters:  []types.Parameter{token},
				Returns:     "object",
			},
		},
	}
}

// Execute runs an auth operation
func (a *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "auth.register":
		return a.register(ctx, params)
	case "auth.login":
		return a.login(ctx, params)
	case "auth.logout":
		return a.logout(params)
	case "auth.verify":
		return a.verify(params)
	case "auth.getUser":
		return a.getUser(params)
	default:
		return types.Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (a *Provider) register(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	user, err := a.dir.Register(ctx,
		types.String(params, "username"),
		types.String(params, "email"),
		types.String(params, "password"))
	if err != nil {
		return rejected(err)
	}
	return types.Success(userData(user))
}

func (a *Provider) login(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	token, user, err := a.dir.Authenticate(ctx, types.String(params, "email"), types.String(params, "password"))
	if err != nil {
		return rejected(err)
	}
	data := userData(user)
	data["token"] = token
	return types.Success(data)
}

func (a *Provider) logout(params map[string]interface{}) (*types.Result, error) {
	token, err := tokenParam(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	if err := a.dir.Revoke(token); err != nil {
		return types.Failure("invalid token")
	}
	return types.Success(map[string]interface{}{"logged_out": true})
}

func (a *Provider) verify(params map[string]interface{}) (*types.Result, error) {
	token, err := tokenParam(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	user, claims, err := a.dir.Verify(token)
	if err != nil {
		return types.Success(map[string]interface{}{"valid": false})
	}
	return types.Success(map[string]interface{}{
		"valid":      true,
		"user_id":    user.ID,
		"expires_at": claims.ExpiresAt.Unix(),
	})
}

func (a *Provider) getUser(params map[string]interface{}) (*types.Result, error) {
	token, err := tokenParam(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	user, _, err := a.dir.Verify(token)
	if err != nil {
		return types.Failure("invalid token")
	}
	return types.Success(userData(user))
}

func tokenParam(params map[string]interface{}) (string, error) {
	token := types.String(params, "token")
	if err := utils.ValidateString(token, "token", 1, 1024, true); err != nil {
		return "", err
	}
	return token, nil
}

func userData(u *collab.User) map[string]interface{} {
	return map[string]interface{}{
		"user_id":  u.ID,
		"username": u.Name,
		"email":    u.Email,
		"admin":    u.IsAdmin(),
	}
}

// rejected turns user-facing errors into failed results and passes
// everything else through.
func rejected(err error) (*types.Result, error) {
	if msg, ok := collab.Message(err); ok {
		return types.Failure(msg)
	}
	return nil, err
}
