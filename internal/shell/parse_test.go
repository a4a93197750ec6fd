package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/command"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"ls", []string{"ls"}},
		{"  cd   home  ", []string{"cd", "home"}},
		{`start my\ project`, []string{"start", `my\ project`}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestCombineArgs(t *testing.T) {
	args := []string{"start", `my\ project`, `x\y`}
	assert.Equal(t, "my project xy", CombineArgs(args, 1))
	assert.Equal(t, "", CombineArgs(args, 3))
	assert.Equal(t, `my\ project`, Escape("my project"))
	assert.Equal(t, []string{"start", `my\ project`}, Parse("start "+Escape("my project")))
}

func TestEnvironment(t *testing.T) {
	env := NewEnvironment(Var{Key: "HOME", Value: "/"}, Var{Key: "USER", Value: "guest"})
	env.Set("PATH", "/bin")
	env.Set("USER", "alice")

	assert.Equal(t, []Var{{"HOME", "/"}, {"USER", "alice"}, {"PATH", "/bin"}}, env.Vars())

	v, ok := env.Lookup("user")
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	_, ok = env.Get("user")
	assert.False(t, ok)

	assert.Equal(t, "alice at / via $SHELL", env.Expand("$User at $HOME via $SHELL"))
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, UserInputError, Kind(usageError("ls", "bad")))
	assert.Equal(t, NotFoundError, Kind(notFound("cd", "Directory not found")))
	assert.Equal(t, AuthorizationError, Kind(command.ErrNotAdmin))
	assert.Equal(t, CollaboratorError, Kind(errors.New("boom")))

	err := collaboratorError("login", "fallback", collab.Reject("login", "nope"))
	var ce *collab.Error
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, "login: fallback: login: nope", err.Error())
}

func TestRendererSanitizesCollaboratorText(t *testing.T) {
	r := newRenderer()

	lines := r.lines(collab.Reject("tags", `<script>alert(1)</script>No tags`))
	assert.Equal(t, "No tags", lines[0].Text)

	lines = r.lines(errors.New("raw failure"))
	assert.Equal(t, genericFailure, lines[0].Text)
}
