package projects

import (
	"context"
	"fmt"

	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Provider exposes a project store as a service. It accepts any backend:
// the in-memory store, the postgres store or the remote API client.
type Provider struct {
	store collab.ProjectStore
}

// NewProvider creates a projects provider over store.
func NewProvider(store collab.ProjectStore) *Provider {
	return &Provider{store: store}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "projects",
		Name:        "Project Service",
		Description: "Generated projects and their tags",
		Category:    types.CategoryStorage,
		Capabilities: []string{
			"list",
			"create",
			"tag",
		},
		Tools: []types.Tool{
			{
				ID:          "projects.list",
				Name:        "List Projects",
				Description: "List the projects owned by a user",
				Parameters: []types.Parameter{
					{Name: "user_id", Type: "string", Description: "Owner ID (defaults to the caller)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "projects.create",
				Name:        "Create Project",
				Description: "Create a project",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "Project name", Required: true},
					{Name: "repository_name", Type: "string", Description: "Repository name", Required: false},
					{Name: "user_id", Type: "string", Description: "Owner ID (defaults to the caller)", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "projects.tags",
				Name:        "List Tags",
				Description: "List all tags",
				Returns:     "array",
			},
			{
				ID:          "projects.create_tag",
				Name:        "Create Tag",
				Description: "Create a tag",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "Tag name", Required: true},
					{Name: "user_can_use", Type: "boolean", Description: "Whether non-admins may apply the tag", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "projects.tag",
				Name:        "Tag Project",
				Description: "Apply a tag to a project",
				Parameters: []types.Parameter{
					{Name: "project_id", Type: "string", Description: "Project ID", Required: true},
					{Name: "tag", Type: "string", Description: "Tag name", Required: true},
				},
				Returns: "boolean",
			},
		},
	}
}

// Execute runs a project operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "projects.list":
		return p.list(ctx, params, appCtx)
	case "projects.create":
		return p.create(ctx, params, appCtx)
	case "projects.tags":
		return p.tags(ctx)
	case "projects.create_tag":
		return p.createTag(ctx, params)
	case "projects.tag":
		return p.tag(ctx, params)
	default:
		return types.Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func owner(params map[string]interface{}, appCtx *types.Context) string {
	if id := types.String(params, "user_id"); id != "" {
		return id
	}
	if appCtx != nil && appCtx.UserID != nil {
		return *appCtx.UserID
	}
	return ""
}

func (p *Provider) list(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	userID := owner(params, appCtx)
	if userID == "" {
		return types.Failure("user_id required")
	}
	list, err := p.store.ListProjects(ctx, userID)
	if err != nil {
		return rejected(err)
	}
	return types.Success(map[string]interface{}{"projects": list, "count": len(list)})
}

func (p *Provider) create(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	userID := owner(params, appCtx)
	if userID == "" {
		return types.Failure("user_id required")
	}
	created, err := p.store.CreateProject(ctx, collab.Project{
		Name:           types.String(params, "name"),
		RepositoryName: types.String(params, "repository_name"),
		UserID:         userID,
	})
	if err != nil {
		return rejected(err)
	}
	return types.Success(map[string]interface{}{"project": created})
}

func (p *Provider) tags(ctx context.Context) (*types.Result, error) {
	list, err := p.store.ListTags(ctx)
	if err != nil {
		return rejected(err)
	}
	return types.Success(map[string]interface{}{"tags": list, "count": len(list)})
}

func (p *Provider) createTag(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	tag, err := p.store.CreateTag(ctx, types.String(params, "name"), types.Bool(params, "user_can_use"))
	if err != nil {
		return rejected(err)
	}
	return types.Success(map[string]interface{}{"tag": tag})
}

func (p *Provider) tag(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	err := p.store.TagProject(ctx, types.String(params, "project_id"), types.String(params, "tag"))
	if err != nil {
		return rejected(err)
	}
	return types.Success(map[string]interface{}{"tagged": true})
}

func rejected(err error) (*types.Result, error) {
	if msg, ok := collab.Message(err); ok {
		return types.Failure(msg)
	}
	return nil, err
}
