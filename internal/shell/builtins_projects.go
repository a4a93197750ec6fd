package shell

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/history"
)

func projectsNotLoaded(op string) *Error {
	return usageError(op, "Projects not loaded. Run projects to load projects.",
		history.Link("projects", "projects"))
}

func (s *Shell) findProject(name string) (collab.Project, bool) {
	for _, p := range s.workspace.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return collab.Project{}, false
}

func (s *Shell) projects(inv *Invocation) error {
	store := s.store
	userID := inv.User.ID

	var list []collab.Project
	inv.Call("list_projects", func(ctx context.Context) error {
		var err error
		list, err = store.ListProjects(ctx, userID)
		return err
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("projects", "An unknown error occurred while fetching projects", err))
			return
		}
		s.workspace.Projects = list
		s.workspace.ProjectsLoaded = true
		if len(list) == 0 {
			inv.Print(history.Text("No projects found"))
			return
		}
		s.workspace.ShowProjects = true
		lines := make([]history.Line, len(list))
		for i, p := range list {
			lines[i] = history.Link(p.Name, "start "+Escape(p.Name))
		}
		inv.Print(lines...)
	})
	return nil
}

func (s *Shell) start(inv *Invocation) error {
	name := inv.Rest(0)
	if name == "" {
		return usageError("start", "Usage: start [project-name]")
	}
	if !s.workspace.ProjectsLoaded {
		return projectsNotLoaded("start")
	}
	p, ok := s.findProject(name)
	if !ok {
		return notFound("start", "Project not found")
	}

	s.nav.Navigate("/home?id="+url.QueryEscape(p.RepositoryName), collab.NavigateOptions{Replace: true})
	inv.Print(history.Text("Loading project " + p.Name))
	inv.After(s.opts.ProvisionDelay, func() {
		s.workspace.ShowProjects = false
		s.workspace.SelectedProject = &p
		inv.Print(history.Text("Starting project " + p.Name))
	})
	return nil
}

// create opens compose mode when called without a prompt.
func (s *Shell) create(inv *Invocation) error {
	provider := s.opts.Provider
	if s.providerKeys[provider] == "" {
		return usageError("create", provider+" API key not set",
			history.Suggest("set "+provider+" [your-key]", "set "+provider+" "))
	}

	prompt := inv.Rest(0)
	if prompt == "" {
		s.composing = true
		inv.Print(history.Text("Type the description of the project you want to create"))
		return nil
	}

	store := s.store
	draft := collab.Project{
		Name:           projectName(prompt),
		RepositoryName: repositoryName(prompt),
		UserID:         inv.User.ID,
	}

	s.nav.Navigate("/home?create="+url.QueryEscape(prompt), collab.NavigateOptions{Replace: true})
	inv.Print(history.Text("Initializing project '" + prompt + "'..."))
	inv.After(s.opts.ProvisionDelay, func() {
		s.workspace.CreatingProject = true
		s.workspace.CreatePrompt = prompt
		inv.Print(history.Text("Creating project '" + prompt + "'..."))

		var created collab.Project
		inv.Call("create_project", func(ctx context.Context) error {
			var err error
			created, err = store.CreateProject(ctx, draft)
			return err
		}, func(err error) {
			if err != nil {
				s.workspace.CreatingProject = false
				inv.Fail(collaboratorError("create", "An unknown error occurred while creating the project", err))
				return
			}
			s.workspace.SelectedProject = &created
			if s.workspace.ProjectsLoaded {
				s.workspace.Projects = append(s.workspace.Projects, created)
			}
			inv.Print(history.Text("Project " + created.Name + " created"))
		})
	})
	return nil
}

// develop hands a prompt to the editor without saving a project.
func (s *Shell) develop(inv *Invocation) error {
	prompt := inv.Rest(0)
	if prompt == "" {
		return usageError("develop", "Usage: develop [project-name]")
	}

	s.nav.Navigate("/home?create="+url.QueryEscape(prompt), collab.NavigateOptions{Replace: true})
	inv.Print(history.Text("Developing project '" + prompt + "'..."))
	inv.After(s.opts.ProvisionDelay, func() {
		s.workspace.CreatingProject = true
		s.workspace.CreatePrompt = prompt
		inv.Print(history.Text("Development started for project '" + prompt + "'..."))
	})
	return nil
}

const maxProjectName = 40

// projectName shortens a creation prompt to a display name.
func projectName(prompt string) string {
	r := []rune(strings.TrimSpace(prompt))
	if len(r) > maxProjectName {
		r = r[:maxProjectName]
	}
	return strings.TrimSpace(string(r))
}

// repositoryName derives a lowercase dash separated slug.
func repositoryName(prompt string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(projectName(prompt)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *Shell) tags(inv *Invocation) error {
	store := s.store

	var list []collab.Tag
	inv.Print(history.Text("Getting tags..."))
	inv.Call("list_tags", func(ctx context.Context) error {
		var err error
		list, err = store.ListTags(ctx)
		return err
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("tags", "An unknown error occurred while fetching tags", err))
			return
		}
		if len(list) == 0 {
			inv.Print(history.Text("No tags found"))
			return
		}
		lines := make([]history.Line, len(list))
		for i, t := range list {
			lines[i] = history.Text(t.Name)
		}
		inv.Print(lines...)
	})
	return nil
}

func (s *Shell) tag(inv *Invocation) error {
	if len(inv.Args) == 0 {
		return usageError("tag", "Usage: "+inv.Usage)
	}
	switch inv.Args[0] {
	case "create":
		return s.createTag(inv)
	case "project":
		return s.tagProject(inv)
	default:
		return usageError("tag", "Subcommand not found. Type help tag to see all available subcommands.",
			history.Link("help tag", "help tag"))
	}
}

func (s *Shell) createTag(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("tag", "Usage: tag create [tagName] [userCanUseThisTag]")
	}
	name := Unescape(inv.Args[1])
	userCanUse := false
	if len(inv.Args) > 2 {
		v, err := strconv.ParseBool(inv.Args[2])
		if err != nil {
			return usageError("tag", "userCanUseThisTag must be true or false")
		}
		userCanUse = v
	}
	store := s.store

	inv.Printf("Creating tag %s...", name)
	inv.Call("create_tag", func(ctx context.Context) error {
		_, err := store.CreateTag(ctx, name, userCanUse)
		return err
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("tag", "An unknown error occurred while creating the tag", err))
			return
		}
		inv.Printf("Tag %s created successfully", name)
	})
	return nil
}

func (s *Shell) tagProject(inv *Invocation) error {
	if len(inv.Args) < 3 {
		return usageError("tag", "Usage: tag project [ProjectName] [tagName]")
	}
	projectName, tagName := Unescape(inv.Args[1]), Unescape(inv.Args[2])
	if !s.workspace.ProjectsLoaded {
		return projectsNotLoaded("tag")
	}
	p, ok := s.findProject(projectName)
	if !ok {
		return notFound("tag", "Project not found")
	}
	store := s.store

	inv.Printf("Tagging project %s with %s...", p.Name, tagName)
	inv.Call("tag_project", func(ctx context.Context) error {
		return store.TagProject(ctx, p.ID, tagName)
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("tag", "An unknown error occurred while tagging the project", err))
			return
		}
		inv.Printf("Project %s tagged with %s successfully", p.Name, tagName)
	})
	return nil
}

func (s *Shell) completeProjects(args []string) []string {
	names := make([]string, len(s.workspace.Projects))
	for i, p := range s.workspace.Projects {
		names[i] = p.Name
	}
	return names
}
