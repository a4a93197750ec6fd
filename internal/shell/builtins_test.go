package shell

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/collab/collabtest"
	"github.com/fastcode/fastshell/internal/shell/history"
)

func TestCdRoundTrip(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, []string{"Changed directory to Developers"}, texts(h.run("cd Developers")))
	assert.Equal(t, "/Developers", h.sh.Snapshot().Cwd)
	assert.Equal(t, "/Developers", h.run("pwd").Directory)

	assert.Equal(t, []string{"Changed directory to root"}, texts(h.run("cd ..")))
	assert.Equal(t, "/", h.sh.Snapshot().Cwd)
	assert.Equal(t, []string{"Already in root directory"}, texts(h.run("cd ..")))

	assert.Equal(t, []string{"cd: not a directory: About"}, texts(h.run("cd About")))
	assert.Equal(t, []string{"Directory not found"}, texts(h.run("cd nowhere")))

	h.run("cd /etc/nginx")
	assert.Equal(t, "/etc/nginx", h.sh.Snapshot().Cwd)
	h.run("cd")
	assert.Equal(t, "/", h.sh.Snapshot().Cwd)
}

func TestCdWithoutArgumentIgnoresHome(t *testing.T) {
	h := newHarness(t, alice)

	h.run("set HOME /etc")
	h.run("cd /etc/nginx")
	assert.Equal(t, []string{"Changed directory to root"}, texts(h.run("cd")))
	assert.Equal(t, "/", h.sh.Snapshot().Cwd)

	h.run("cd Developers")
	h.run("cd ~")
	assert.Equal(t, "/", h.sh.Snapshot().Cwd)
}

func TestCatPrintsContentLines(t *testing.T) {
	h := newHarness(t, alice)

	e := h.run("cat About")
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "Type help to see what this terminal can do.", e.Lines[1].Text)

	_, _, err := h.sh.root.Touch("notes", "one\ntwo\n", "644")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts(h.run("cat notes")))
}

func TestTouchRejectsOversizedContent(t *testing.T) {
	h := newHarness(t, alice)

	big := strings.Repeat("x", utils.MaxContentSize+1)
	e := h.run("touch big " + big)
	require.Len(t, e.Lines, 1)
	assert.Equal(t, history.KindError, e.Lines[0].Kind)
	assert.Contains(t, e.Lines[0].Text, "touch: big: payload size")
	assert.False(t, h.sh.root.Has("big"))

	assert.Equal(t, []string{"File small created"}, texts(h.run("touch small "+strings.Repeat("x", 64))))
}

func TestLsTargets(t *testing.T) {
	h := newHarness(t, nil)

	e := h.run("ls home")
	assert.Equal(t, []string{"file1.txt"}, texts(e))
	assert.Equal(t, "cat /home/file1.txt", e.Lines[0].Action.Command)

	assert.Equal(t, []string{"ls: no such file or directory: nope"}, texts(h.run("ls nope")))
	assert.Equal(t, []string{"Contact"}, texts(h.run("ls C*")))
	assert.Equal(t, []string{"About"}, texts(h.run("ls About")))

	bin := texts(h.run("ls /bin"))
	assert.Contains(t, bin, "ls")
	assert.Contains(t, bin, "set_admin")
}

func TestCatFiles(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, []string{"User's text file"}, texts(h.run("cat home/file1.txt")))
	assert.Equal(t, []string{"cat: nope: No such file"}, texts(h.run("cat nope")))
	assert.Equal(t, []string{"cat: home: Is a directory"}, texts(h.run("cat home")))
	assert.Equal(t, []string{"Usage: cat [file]"}, texts(h.run("cat")))
}

func TestFilesystemMutations(t *testing.T) {
	h := newHarness(t, root)
	before := len(h.run("ls").Lines)

	assert.Equal(t, []string{"Directory tmp created"}, texts(h.run("mkdir tmp")))
	assert.Equal(t, []string{"mkdir: tmp: File exists"}, texts(h.run("mkdir tmp")))
	assert.Equal(t, []string{"File notes created"}, texts(h.run(`touch notes hello\ world 600`)))
	assert.Equal(t, []string{"hello world"}, texts(h.run("cat notes")))
	assert.Equal(t, []string{"File notes updated"}, texts(h.run("touch notes bye")))
	assert.Equal(t, []string{"bye"}, texts(h.run("cat notes")))

	assert.Equal(t, []string{"Copied notes to copy"}, texts(h.run("cp notes copy")))
	assert.Equal(t, []string{"Moved copy to moved"}, texts(h.run("mv copy moved")))
	assert.Equal(t, []string{"Permissions of moved set to 755"}, texts(h.run("chmod moved 755")))
	assert.Equal(t, []string{"chmod: invalid permissions, expected three octal digits"}, texts(h.run("chmod moved 9")))

	assert.Equal(t, []string{"notes removed"}, texts(h.run("rm notes")))
	assert.Equal(t, []string{"moved removed"}, texts(h.run("rm moved")))
	assert.Equal(t, []string{"tmp removed"}, texts(h.run("rm tmp")))
	assert.Len(t, h.run("ls").Lines, before)

	assert.Equal(t, []string{"rm: ghost: No such file or directory"}, texts(h.run("rm ghost")))
	assert.Equal(t, []string{"Usage: mkdir [name]"}, texts(h.run("mkdir")))
}

func TestElevatedDirectoryNeedsAdmin(t *testing.T) {
	h := newHarness(t, alice)
	h.run("cd etc/nginx")

	assert.Equal(t, []string{"mkdir: /etc/nginx: Permission denied"}, texts(h.run("mkdir conf.d")))
	assert.Empty(t, texts(h.run("ls")))
}

func TestEnvAndSet(t *testing.T) {
	h := newHarness(t, alice)

	assert.Equal(t, []string{"HOME=/", "USER=alice", "PATH=/bin"}, texts(h.run("env")))
	assert.Equal(t, []string{"path=/bin"}, texts(h.run("env path")))
	assert.Equal(t, []string{"MISSING="}, texts(h.run("env MISSING")))

	assert.Equal(t, []string{"OpenAI=sk-test"}, texts(h.run("set OpenAI sk-test")))
	assert.Equal(t, []string{"sk-test"}, texts(h.run("echo $OPENAI")))
	assert.Equal(t, []string{"Usage: set [key] [value]"}, texts(h.run("set OpenAI")))
	h.auth.AssertCalled(t, "SetPreferences", mock.Anything, collab.Preferences{providerKeysPref: `{"OpenAI":"sk-test"}`})
}

func TestClearRemovesItsOwnEntry(t *testing.T) {
	h := newHarness(t, nil)
	h.run("pwd")
	h.sh.Submit("clear")
	h.sched.Flush()

	assert.Empty(t, h.sh.Snapshot().Entries)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		auth := new(collabtest.MockAuth)
		auth.On("CurrentUser", mock.Anything).Return(nil, nil).Once()
		auth.On("CurrentUser", mock.Anything).Return(alice, nil)
		auth.On("Preferences", mock.Anything).Return(collab.Preferences{providerKeysPref: `{"Anthropic":"k"}`}, nil)
		auth.On("Login", mock.Anything, "alice@example.com", "hunter22").Return(nil)
		h := newHarnessWith(t, auth, testOptions())
		require.Nil(t, h.sh.Snapshot().User)

		e := h.run("login alice@example.com hunter22")
		assert.Equal(t, []string{"Logging in...", "Logged in as alice@example.com"}, texts(e))
		assert.Equal(t, "alice", h.sh.Snapshot().User.Name)
		assert.Equal(t, []string{"k"}, texts(h.run("echo $Anthropic")))
	})

	t.Run("rejected", func(t *testing.T) {
		h := newHarness(t, nil)
		h.auth.On("Login", mock.Anything, "a@b.c", "pw").Return(collab.Reject("login", "<b>Invalid</b> credentials"))

		e := h.run("login a@b.c pw")
		assert.Equal(t, []string{"Logging in...", "Invalid credentials"}, texts(e))
		assert.Equal(t, history.KindError, e.Lines[1].Kind)
		assert.Nil(t, h.sh.Snapshot().User)
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.auth.On("Login", mock.Anything, "a@b.c", "pw").Return(errors.New("connection reset"))

		assert.Equal(t,
			[]string{"Logging in...", "An unknown error occurred while logging in"},
			texts(h.run("login a@b.c pw")))
	})

	t.Run("usage", func(t *testing.T) {
		h := newHarness(t, nil)

		e := h.run("login a@b.c")
		assert.Equal(t, []string{"Usage: login [email] [password]", "register - create a new account"}, texts(e))
		h.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRegister(t *testing.T) {
	h := newHarness(t, nil)
	h.auth.On("Register", mock.Anything, "bob", "bob@example.com", "secret123").Return(nil)

	e := h.run("register bob bob@example.com secret123")
	assert.Equal(t, []string{
		"Creating account for bob (bob@example.com)...",
		"Account created successfully",
		"login - log in to your account",
	}, texts(e))
	assert.Equal(t, "login bob@example.com ", e.Lines[2].Action.Command)
	assert.False(t, e.Lines[2].Action.Run)
}

func TestLogoutReloadsSession(t *testing.T) {
	auth := new(collabtest.MockAuth)
	auth.On("CurrentUser", mock.Anything).Return(alice, nil).Once()
	auth.On("CurrentUser", mock.Anything).Return(nil, nil)
	auth.On("Preferences", mock.Anything).Return(collab.Preferences{}, nil)
	auth.On("Logout", mock.Anything).Return(nil)
	h := newHarnessWith(t, auth, testOptions())

	h.run("cd Developers")
	assert.Equal(t, []string{"Logging out..."}, texts(h.run("logout")))
	assert.Empty(t, h.nav.Calls())

	h.sched.Advance(time.Second)

	assert.Equal(t, []collabtest.Navigation{{Path: "/", Opts: collab.NavigateOptions{Reload: true}}}, h.nav.Calls())
	snap := h.sh.Snapshot()
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, "/", snap.Cwd)
	assert.Equal(t, []string{"guest"}, texts(h.run("echo $USER")))
}

func TestLogoutFailure(t *testing.T) {
	h := newHarness(t, alice)
	h.auth.On("Logout", mock.Anything).Return(errors.New("boom"))

	assert.Equal(t, []string{"Logging out...", "error deleting current user session"}, texts(h.run("logout")))
	h.sched.Settle()
	assert.Empty(t, h.nav.Calls())
}

func TestProjects(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		h := newHarness(t, alice)
		h.store.On("ListProjects", mock.Anything, "u1").Return([]collab.Project{}, nil)

		assert.Equal(t, []string{"No projects found"}, texts(h.run("projects")))
		ws := h.sh.Snapshot().Workspace
		assert.True(t, ws.ProjectsLoaded)
		assert.False(t, ws.ShowProjects)
	})

	t.Run("start", func(t *testing.T) {
		h := newHarness(t, alice)
		h.store.On("ListProjects", mock.Anything, "u1").Return([]collab.Project{
			{ID: "p1", Name: "My App", RepositoryName: "my-app", UserID: "u1"},
		}, nil)

		assert.Equal(t,
			[]string{"Projects not loaded. Run projects to load projects.", "projects"},
			texts(h.run("start My App")))

		e := h.run("projects")
		assert.Equal(t, []string{"My App"}, texts(e))
		assert.Equal(t, `start My\ App`, e.Lines[0].Action.Command)
		assert.True(t, h.sh.Snapshot().Workspace.ShowProjects)

		assert.Equal(t, []string{"Project not found"}, texts(h.run("start Other")))

		start := h.run(`start My\ App`)
		assert.Equal(t, []string{"Loading project My App"}, texts(start))
		assert.Equal(t, []collabtest.Navigation{{Path: "/home?id=my-app", Opts: collab.NavigateOptions{Replace: true}}}, h.nav.Calls())

		h.sched.Advance(9 * time.Second)
		assert.Nil(t, h.sh.Snapshot().Workspace.SelectedProject)
		h.sched.Advance(time.Second)

		got, ok := h.sh.history.Entry(start.ID)
		require.True(t, ok)
		assert.Equal(t, []string{"Loading project My App", "Starting project My App"}, texts(got))
		ws := h.sh.Snapshot().Workspace
		require.NotNil(t, ws.SelectedProject)
		assert.Equal(t, "p1", ws.SelectedProject.ID)
		assert.False(t, ws.ShowProjects)

		assert.Equal(t, []string{"Exiting..."}, texts(h.run("exit")))
		assert.Nil(t, h.sh.Snapshot().Workspace.SelectedProject)
		assert.Equal(t, "/home", h.nav.Calls()[1].Path)
	})

	t.Run("store failure", func(t *testing.T) {
		h := newHarness(t, alice)
		h.store.On("ListProjects", mock.Anything, "u1").Return(nil, collab.Reject("list_projects", "Database unavailable"))

		assert.Equal(t, []string{"Database unavailable"}, texts(h.run("projects")))
		assert.False(t, h.sh.Snapshot().Workspace.ProjectsLoaded)
	})
}

func TestCreate(t *testing.T) {
	h := newHarness(t, alice)

	e := h.run("create a todo app")
	assert.Equal(t, []string{"OpenAI API key not set", "set OpenAI [your-key]"}, texts(e))
	assert.False(t, e.Lines[1].Action.Run)
	assert.Equal(t, "set OpenAI ", e.Lines[1].Action.Command)

	draft := collab.Project{Name: "a todo app", RepositoryName: "a-todo-app", UserID: "u1"}
	saved := draft
	saved.ID = "p1"
	h.store.On("CreateProject", mock.Anything, draft).Return(saved, nil)

	h.run("set OpenAI sk")
	assert.Equal(t, []string{"Type the description of the project you want to create"}, texts(h.run("create")))

	e = h.run("a todo app")
	assert.Equal(t, "create a todo app", e.Command)
	assert.Equal(t, []string{"Initializing project 'a todo app'..."}, texts(e))
	assert.Equal(t, []collabtest.Navigation{{Path: "/home?create=a+todo+app", Opts: collab.NavigateOptions{Replace: true}}}, h.nav.Calls())

	h.sched.Advance(10 * time.Second)
	h.sched.Flush()
	got, _ := h.sh.history.Entry(e.ID)
	assert.Equal(t, []string{
		"Initializing project 'a todo app'...",
		"Creating project 'a todo app'...",
		"Project a todo app created",
	}, texts(got))
	ws := h.sh.Snapshot().Workspace
	assert.True(t, ws.CreatingProject)
	assert.Equal(t, "a todo app", ws.CreatePrompt)
	require.NotNil(t, ws.SelectedProject)
	assert.Equal(t, "p1", ws.SelectedProject.ID)
}

func TestDevelopOpensPromptWithoutSaving(t *testing.T) {
	h := newHarness(t, alice)

	assert.Equal(t, []string{"Usage: develop [project-name]"}, texts(h.run("develop")))

	e := h.run("develop a chat app")
	assert.Equal(t, []string{"Developing project 'a chat app'..."}, texts(e))
	assert.Equal(t, []collabtest.Navigation{{Path: "/home?create=a+chat+app", Opts: collab.NavigateOptions{Replace: true}}}, h.nav.Calls())

	h.sched.Advance(10 * time.Second)
	h.sched.Flush()
	got, _ := h.sh.history.Entry(e.ID)
	assert.Equal(t, []string{
		"Developing project 'a chat app'...",
		"Development started for project 'a chat app'...",
	}, texts(got))
	ws := h.sh.Snapshot().Workspace
	assert.True(t, ws.CreatingProject)
	assert.Equal(t, "a chat app", ws.CreatePrompt)
	assert.Nil(t, ws.SelectedProject)
	h.store.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestSudoNeverElevates(t *testing.T) {
	h := newHarness(t, alice)

	lines := texts(h.run("sudo rm About"))
	require.Len(t, lines, 9)
	assert.Equal(t, "sudo: superuser unavailable", lines[0])
	assert.Equal(t, "but I made you a sandwich", lines[1])
	assert.Equal(t, `/_________\`, lines[4])
	assert.Contains(t, sandwichSlices, lines[5])
	assert.Contains(t, sandwichSlices, lines[7])
	assert.Equal(t, `\_________/`, lines[8])
	assert.True(t, h.sh.root.Has("About"))

	anon := newHarness(t, nil)
	assert.Equal(t, []string{"Not logged in", "login - log in to your account"}, texts(anon.run("sudo")))
}

func TestCreateFailure(t *testing.T) {
	h := newHarness(t, alice)
	h.sh.providerKeys["OpenAI"] = "sk"
	h.store.On("CreateProject", mock.Anything, mock.Anything).
		Return(collab.Project{}, collab.Reject("create_project", "Project limit reached"))

	e := h.run("create chess engine")
	h.sched.Advance(10 * time.Second)
	h.sched.Flush()

	got, _ := h.sh.history.Entry(e.ID)
	assert.Equal(t, "Project limit reached", got.Lines[len(got.Lines)-1].Text)
	assert.False(t, h.sh.Snapshot().Workspace.CreatingProject)
}

func TestRepositoryName(t *testing.T) {
	assert.Equal(t, "a-todo-app", repositoryName("  A todo app! "))
	assert.Equal(t, "chess-engine-v2", repositoryName("chess engine -- v2"))
	assert.Len(t, []rune(projectName(strings.Repeat("x", 100))), maxProjectName)
}

func TestTags(t *testing.T) {
	h := newHarness(t, root)
	h.store.On("ListTags", mock.Anything).Return([]collab.Tag{}, nil).Once()
	h.store.On("ListTags", mock.Anything).Return([]collab.Tag{{ID: "t1", Name: "promo", UserCanUse: true}}, nil)
	h.store.On("CreateTag", mock.Anything, "promo", true).Return(collab.Tag{ID: "t1", Name: "promo", UserCanUse: true}, nil)
	h.store.On("ListProjects", mock.Anything, "u0").Return([]collab.Project{{ID: "p9", Name: "site"}}, nil)
	h.store.On("TagProject", mock.Anything, "p9", "promo").Return(nil)

	assert.Equal(t, []string{"Getting tags...", "No tags found"}, texts(h.run("tags")))
	assert.Equal(t, []string{"Creating tag promo...", "Tag promo created successfully"}, texts(h.run("tag create promo true")))
	assert.Equal(t, []string{"Getting tags...", "promo"}, texts(h.run("tags")))

	assert.Equal(t, []string{"Projects not loaded. Run projects to load projects.", "projects"}, texts(h.run("tag project site promo")))
	h.run("projects")
	assert.Equal(t,
		[]string{"Tagging project site with promo...", "Project site tagged with promo successfully"},
		texts(h.run("tag project site promo")))

	assert.Equal(t, []string{"userCanUseThisTag must be true or false"}, texts(h.run("tag create x maybe")))
	e := h.run("tag rename x")
	assert.Equal(t, []string{"Subcommand not found. Type help tag to see all available subcommands.", "help tag"}, texts(e))
	assert.Equal(t, "help tag", e.Lines[1].Action.Command)
	assert.Equal(t, []string{"Usage: tag [create | project] [ProjectName] [tagName] [userCanUseThisTag]"}, texts(h.run("tag")))
}

func TestSetAdminRefreshesUser(t *testing.T) {
	promoted := &collab.User{ID: "u1", Name: "alice", Email: "alice@example.com", Labels: []string{collab.AdminLabel}}
	auth := new(collabtest.MockAuth)
	auth.On("CurrentUser", mock.Anything).Return(alice, nil).Once()
	auth.On("CurrentUser", mock.Anything).Return(promoted, nil)
	auth.On("Preferences", mock.Anything).Return(collab.Preferences{}, nil)
	auth.On("SetAdmin", mock.Anything, "alice@example.com", "letmein").Return(nil)
	h := newHarnessWith(t, auth, testOptions())

	assert.Equal(t,
		[]string{"Setting admin for alice@example.com...", "Admin set for alice@example.com successfully"},
		texts(h.run("set_admin alice@example.com letmein")))
	assert.True(t, h.sh.user.IsAdmin())
}
