package remote

import (
	"context"
	"net/http"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Store is a collab.ProjectStore over the remote API, authenticated as the
// account of one session.
type Store struct {
	c     *Client
	token func() string
}

var _ collab.ProjectStore = (*Store)(nil)

// Store returns the project store acting as acct.
func (a *Account) Store() *Store {
	return &Store{c: a.c, token: a.Token}
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]collab.Project, error) {
	var out struct {
		Projects []collab.Project `json:"projects"`
	}
	err := s.c.do(ctx, call{
		op:     "list_projects",
		method: http.MethodGet,
		path:   "/api/projects",
		token:  s.token(),
		query:  map[string]string{"user_id": userID},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Projects == nil {
		out.Projects = []collab.Project{}
	}
	return out.Projects, nil
}

func (s *Store) CreateProject(ctx context.Context, p collab.Project) (collab.Project, error) {
	var out struct {
		Project collab.Project `json:"project"`
	}
	err := s.c.do(ctx, call{op: "create_project", method: http.MethodPost, path: "/api/projects", token: s.token(), body: p, out: &out})
	return out.Project, err
}

func (s *Store) ListTags(ctx context.Context) ([]collab.Tag, error) {
	var out struct {
		Tags []collab.Tag `json:"tags"`
	}
	if err := s.c.do(ctx, call{op: "list_tags", method: http.MethodGet, path: "/api/tags", token: s.token(), out: &out}); err != nil {
		return nil, err
	}
	if out.Tags == nil {
		out.Tags = []collab.Tag{}
	}
	return out.Tags, nil
}

func (s *Store) CreateTag(ctx context.Context, name string, userCanUse bool) (collab.Tag, error) {
	var out struct {
		Tag collab.Tag `json:"tag"`
	}
	err := s.c.do(ctx, call{
		op:     "create_tag",
		method: http.MethodPost,
		path:   "/api/tags",
		token:  s.token(),
		body:   collab.Tag{Name: name, UserCanUse: userCanUse},
		out:    &out,
	})
	return out.Tag, err
}

func (s *Store) TagProject(ctx context.Context, projectID, tagName string) error {
	return s.c.do(ctx, call{
		op:     "tag_project",
		method: http.MethodPost,
		path:   "/api/tag_project",
		token:  s.token(),
		body:   map[string]string{"project_id": projectID, "tag": tagName},
	})
}
