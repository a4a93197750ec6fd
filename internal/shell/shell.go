package shell

import (
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shell/animator"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/command"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/loop"
	"github.com/fastcode/fastshell/internal/shell/program"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

// State is the dispatcher's position in handling a line.
type State string

const (
	StateIdle           State = "idle"
	StateParsing        State = "parsing"
	StateAuthorizing    State = "resolving_authorization"
	StateExecuting      State = "executing"
	StateRunningProgram State = "running_program"
)

// Observer is told about command outcomes. monitoring.Metrics implements it.
type Observer interface {
	CommandFinished(command, outcome string, elapsed time.Duration)
	AuthorizationDenied(command, level string)
	CollaboratorCall(op, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) CommandFinished(string, string, time.Duration)  {}
func (nopObserver) AuthorizationDenied(string, string)             {}
func (nopObserver) CollaboratorCall(string, string, time.Duration) {}

// Deps are the collaborators a session talks to.
type Deps struct {
	Auth      collab.Auth
	Store     collab.ProjectStore
	Navigator collab.Navigator
	Scheduler loop.Scheduler
	Logger    *zap.Logger
	Observer  Observer
}

// Workspace is the project selection the surrounding UI renders.
type Workspace struct {
	Projects        []collab.Project `json:"projects"`
	ProjectsLoaded  bool             `json:"projects_loaded"`
	ShowProjects    bool             `json:"show_projects"`
	SelectedProject *collab.Project  `json:"selected_project,omitempty"`
	CreatingProject bool             `json:"creating_project"`
	CreatePrompt    string           `json:"create_prompt,omitempty"`
}

const providerKeysPref = "providerKeys"

var (
	ErrMissingAuth      = errors.New("shell: auth collaborator is required")
	ErrMissingStore     = errors.New("shell: project store is required")
	ErrMissingScheduler = errors.New("shell: scheduler is required")
)

// Shell is one interactive terminal session. Every method must be called on
// the session's scheduler; the shell never locks.
type Shell struct {
	opts   Options
	auth   collab.Auth
	store  collab.ProjectStore
	nav    collab.Navigator
	sched  loop.Scheduler
	log    *zap.Logger
	obs    Observer
	render renderer
	typer  *animator.Animator

	root         *vfs.Directory
	cwd          *vfs.Directory
	env          *Environment
	history      *history.Recorder
	user         *collab.User
	providerKeys map[string]string
	workspace    Workspace
	composing    bool
	running      *run
	state        State
	inflight     int
	generation   uint64

	onChange     func()
	notifyQueued bool
}

type run struct {
	prog   program.Program
	state  program.State
	prompt string
}

// New creates a session in its bootstrap state. Call Boot to start it.
func New(deps Deps, opts Options) (*Shell, error) {
	switch {
	case deps.Auth == nil:
		return nil, ErrMissingAuth
	case deps.Store == nil:
		return nil, ErrMissingStore
	case deps.Scheduler == nil:
		return nil, ErrMissingScheduler
	}
	if deps.Navigator == nil {
		deps.Navigator = collab.NavigatorFunc(func(string, collab.NavigateOptions) {})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}

	s := &Shell{
		opts:   opts.withDefaults(),
		auth:   deps.Auth,
		store:  deps.Store,
		nav:    deps.Navigator,
		sched:  deps.Scheduler,
		log:    deps.Logger,
		obs:    deps.Observer,
		render: newRenderer(),
	}
	s.typer = animator.New(s.sched, s.opts.Typing, s.typed, s.Submit)
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset discards everything the session accumulated. Continuations started
// before the reset are dropped.
func (s *Shell) reset() error {
	root, err := s.opts.Tree.Build()
	if err != nil {
		return err
	}
	s.generation++
	s.root = root
	s.cwd = root
	s.env = NewEnvironment(
		Var{Key: "HOME", Value: s.opts.Home},
		Var{Key: "USER", Value: s.opts.DefaultUser},
		Var{Key: "PATH", Value: s.opts.Path},
	)
	s.history = history.NewRecorder()
	s.user = nil
	s.providerKeys = make(map[string]string)
	s.workspace = Workspace{}
	s.composing = false
	s.running = nil
	s.state = StateIdle
	s.inflight = 0
	s.typer.Cancel()
	return nil
}

// OnChange registers fn to run after any batch of visible changes.
func (s *Shell) OnChange(fn func()) { s.onChange = fn }

// Boot loads the signed-in user and types the boot command.
func (s *Shell) Boot() {
	gen := s.generation
	auth := s.auth
	timeout := s.opts.CallTimeout
	start := time.Now()

	s.sched.Go(func() func() {
		ctx, cancel := callContext(timeout)
		defer cancel()
		user, err := auth.CurrentUser(ctx)
		var prefs collab.Preferences
		if err == nil && user != nil {
			prefs, err = auth.Preferences(ctx)
		}
		return func() {
			s.obs.CollaboratorCall("current_user", outcome(err), time.Since(start))
			if gen != s.generation {
				return
			}
			if err != nil {
				s.log.Warn("failed to load session user", zap.Error(err))
			}
			s.setUser(user)
			s.loadProviderKeys(prefs)
			s.changed()
		}
	})

	if s.opts.BootCommand != "" {
		s.sched.After(s.opts.BootDelay, func() {
			if gen == s.generation {
				s.typer.Type(s.opts.BootCommand, false)
			}
		})
	}
}

// Submit runs a line as if the user pressed enter.
func (s *Shell) Submit(line string) {
	s.typer.Cancel()
	s.history.SetInput("")
	defer s.changed()
	defer s.refreshMode()

	if s.running != nil {
		s.feedProgram(line)
		return
	}

	line = strings.TrimSpace(line)
	if s.composing {
		s.composing = false
		if line != "" && line != "create" && !strings.HasPrefix(line, "create ") {
			line = "create " + line
		}
	}
	if line == "" {
		s.history.Record("", s.cwd.Path())
		return
	}
	s.dispatch(line, 0)
}

// SetInput replaces the prompt with what the user typed, abandoning any
// animation.
func (s *Shell) SetInput(text string) {
	s.typer.Cancel()
	s.history.SetInput(text)
	s.refreshMode()
	s.changed()
}

// Type animates text into the prompt and submits it unless suppress is set.
func (s *Shell) Type(text string, suppress bool) {
	s.typer.Type(text, suppress)
}

// Activate performs a line's action.
func (s *Shell) Activate(a history.Action) {
	s.Type(a.Command, !a.Run)
}

// Hover sets the hint shown for the item under the pointer.
func (s *Shell) Hover(text string) {
	s.history.SetHover(text)
	s.changed()
}

// Interrupt ends a running program and abandons typing or composing.
func (s *Shell) Interrupt() {
	s.typer.Cancel()
	s.composing = false
	if s.running != nil {
		s.history.Append(history.Text("^C"))
		s.stopProgram()
	}
	s.history.SetInput("")
	s.refreshMode()
	s.changed()
}

// State reports the dispatcher state.
func (s *Shell) State() State { return s.state }

func (s *Shell) typed(text string) {
	s.history.SetInput(text)
	s.history.SetMode(history.ModeInputting)
	s.changed()
}

func (s *Shell) dispatch(line string, depth int) {
	s.state = StateParsing
	defer func() {
		if s.running == nil {
			s.state = StateIdle
		}
	}()

	start := time.Now()
	dir := s.cwd
	entry := s.history.Record(line, dir.Path())
	tokens := Parse(line)
	name, args := tokens[0], tokens[1:]
	s.log.Debug("dispatch", zap.String("command", name), zap.Int("args", len(args)), zap.Int("depth", depth))

	desc, ok := builtins.Lookup(name)
	if !ok {
		if s.execPath(name, entry, depth) {
			s.obs.CommandFinished("exec", "ok", time.Since(start))
			return
		}
		s.history.AppendTo(entry,
			history.Error("fastcode: command not found: "+name),
			history.Link("Type help to see all available commands", "help"),
		)
		s.obs.CommandFinished("unknown", NotFoundError.String(), time.Since(start))
		return
	}

	s.state = StateAuthorizing
	if err := command.Authorize(desc.Level, s.user); err != nil {
		s.obs.AuthorizationDenied(name, desc.Level.String())
		s.obs.CommandFinished(name, AuthorizationError.String(), time.Since(start))
		s.history.AppendTo(entry, s.render.lines(err)...)
		return
	}

	s.state = StateExecuting
	inv := &Invocation{
		Name:  name,
		Args:  args,
		Line:  line,
		Usage: desc.Usage(),
		Dir:   dir,
		User:  s.user,
		Entry: entry,
		shell: s,
		gen:   s.generation,
	}
	result := "ok"
	if err := desc.Handler.run(s, inv); err != nil {
		result = Kind(err).String()
		inv.Fail(err)
	}
	s.obs.CommandFinished(name, result, time.Since(start))
}

func (s *Shell) setUser(u *collab.User) {
	s.user = u
	name := s.opts.DefaultUser
	if u != nil {
		name = u.DisplayName()
	}
	s.env.Set("USER", name)
}

func (s *Shell) refreshMode() {
	switch {
	case s.inflight > 0:
		s.history.SetMode(history.ModeOutputting)
	case s.history.Input() != "":
		s.history.SetMode(history.ModeInputting)
	default:
		s.history.SetMode(history.ModeWaiting)
	}
}

// changed schedules a single OnChange notification for the current batch.
func (s *Shell) changed() {
	if s.onChange == nil || s.notifyQueued {
		return
	}
	s.notifyQueued = true
	s.sched.Post(func() {
		s.notifyQueued = false
		s.onChange()
	})
}

// pathDirs splits PATH, dropping empty entries.
func (s *Shell) pathDirs() []string {
	raw, _ := s.env.Lookup("PATH")
	return slices.DeleteFunc(strings.Split(raw, ":"), func(d string) bool { return d == "" })
}

func (s *Shell) binMounted() bool {
	return slices.Contains(s.pathDirs(), s.opts.BinMount)
}
