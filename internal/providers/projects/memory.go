package projects

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Memory is an in-process project and tag store.
type Memory struct {
	mu       sync.RWMutex
	projects []collab.Project
	tags     []collab.Tag
	tagged   map[string][]string // project ID -> tag names
}

var _ collab.ProjectStore = (*Memory)(nil)

// NewMemory creates a store holding seed projects. Seeds without an ID get one.
func NewMemory(seed ...collab.Project) *Memory {
	m := &Memory{tagged: make(map[string][]string)}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		m.projects = append(m.projects, p)
	}
	return m
}

func (m *Memory) ListProjects(ctx context.Context, userID string) ([]collab.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []collab.Project{}
	for _, p := range m.projects {
		if p.UserID == userID {
			p.Tags = slices.Clone(m.tagged[p.ID])
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) CreateProject(ctx context.Context, p collab.Project) (collab.Project, error) {
	if err := ctx.Err(); err != nil {
		return collab.Project{}, err
	}
	if err := utils.ValidateName(p.Name, "project name"); err != nil {
		return collab.Project{}, collab.Reject("create_project", "Invalid project name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.projects {
		if existing.UserID == p.UserID && existing.Name == p.Name {
			return collab.Project{}, collab.Reject("create_project", "A project named "+p.Name+" already exists")
		}
	}
	p.ID = uuid.NewString()
	p.Tags = nil
	if p.RepositoryName == "" {
		p.RepositoryName = p.ID
	}
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *Memory) ListTags(ctx context.Context) ([]collab.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]collab.Tag{}, m.tags...), nil
}

func (m *Memory) CreateTag(ctx context.Context, name string, userCanUse bool) (collab.Tag, error) {
	if err := ctx.Err(); err != nil {
		return collab.Tag{}, err
	}
	if err := utils.ValidateTag(name); err != nil {
		return collab.Tag{}, collab.Reject("create_tag", "Invalid tag name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagIndex(name) >= 0 {
		return collab.Tag{}, collab.Reject("create_tag", "Tag "+name+" already exists")
	}
	t := collab.Tag{ID: uuid.NewString(), Name: name, UserCanUse: userCanUse}
	m.tags = append(m.tags, t)
	return t, nil
}

// TagProject is idempotent for a tag the project already carries.
func (m *Memory) TagProject(ctx context.Context, projectID, tagName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.ContainsFunc(m.projects, func(p collab.Project) bool { return p.ID == projectID }) {
		return collab.Reject("tag_project", "Project not found")
	}
	if m.tagIndex(tagName) < 0 {
		return collab.Reject("tag_project", "Tag "+tagName+" not found")
	}
	if !slices.Contains(m.tagged[projectID], tagName) {
		m.tagged[projectID] = append(m.tagged[projectID], tagName)
	}
	return nil
}

func (m *Memory) tagIndex(name string) int {
	return slices.IndexFunc(m.tags, func(t collab.Tag) bool { return t.Name == name })
}
