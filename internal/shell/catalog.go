package shell

import (
	"github.com/fastcode/fastshell/internal/shell/command"
)

type handler struct {
	run      func(*Shell, *Invocation) error
	complete func(s *Shell, args []string) []string
}

type descriptor = command.Descriptor[handler]

// builtins is filled in init: several handlers consult it.
var builtins *command.Registry[handler]

func init() {
	builtins = mustRegistry(catalog()...)
}

func catalog() []descriptor {
	return []descriptor{
		{
			Name:        "ls",
			Args:        []command.Arg{{Name: "path", Type: "string", Description: "Directory or glob pattern"}},
			Level:       command.Public,
			Description: "List directory contents",
			Handler:     handler{run: (*Shell).ls},
		},
		{
			Name:        "cd",
			Args:        []command.Arg{{Name: "dir", Type: "string", Description: "Directory to change to"}},
			Level:       command.Public,
			Description: `Change directory. Use ".." to go up, "/" or "~" for root`,
			Handler:     handler{run: (*Shell).cd, complete: (*Shell).completeDirs},
		},
		{
			Name:        "pwd",
			Level:       command.Public,
			Description: "Print the current directory",
			Handler:     handler{run: (*Shell).pwd},
		},
		{
			Name:        "mkdir",
			Args:        []command.Arg{{Name: "name", Type: "string", Description: "Directory name"}},
			Level:       command.Authenticated,
			Description: "Create a directory",
			Handler:     handler{run: (*Shell).mkdir},
		},
		{
			Name: "touch",
			Args: []command.Arg{
				{Name: "name", Type: "string", Description: "File name"},
				{Name: "content", Type: "string", Description: "File content"},
				{Name: "permissions", Type: "string", Description: "Three octal digits"},
			},
			Level:       command.Authenticated,
			Description: "Create a file",
			Handler:     handler{run: (*Shell).touch},
		},
		{
			Name:        "rm",
			Args:        []command.Arg{{Name: "name", Type: "string", Description: "File or directory name"}},
			Level:       command.Admin,
			Description: "Remove a file or directory",
			Handler:     handler{run: (*Shell).rm},
		},
		{
			Name:        "cat",
			Args:        []command.Arg{{Name: "file", Type: "string", Description: "File to print"}},
			Level:       command.Public,
			Description: "Print file contents",
			Handler:     handler{run: (*Shell).cat},
		},
		{
			Name: "cp",
			Args: []command.Arg{
				{Name: "source", Type: "string"},
				{Name: "target", Type: "string"},
			},
			Level:       command.Authenticated,
			Description: "Copy a file",
			Handler:     handler{run: (*Shell).cp},
		},
		{
			Name: "mv",
			Args: []command.Arg{
				{Name: "source", Type: "string"},
				{Name: "target", Type: "string"},
			},
			Level:       command.Authenticated,
			Description: "Rename a file or directory",
			Handler:     handler{run: (*Shell).mv},
		},
		{
			Name: "chmod",
			Args: []command.Arg{
				{Name: "name", Type: "string"},
				{Name: "permissions", Type: "string", Description: "Three octal digits"},
			},
			Level:       command.Authenticated,
			Description: "Change file permissions",
			Handler:     handler{run: (*Shell).chmod},
		},
		{
			Name:        "echo",
			Args:        []command.Arg{{Name: "text", Type: "string", Variadic: true}},
			Level:       command.Public,
			Description: "Print text, expanding $VARIABLES",
			Handler:     handler{run: (*Shell).echo},
		},
		{
			Name:        "whoami",
			Level:       command.Public,
			Description: "Print the current user",
			Handler:     handler{run: (*Shell).whoami},
		},
		{
			Name:        "projects",
			Level:       command.Authenticated,
			Description: "List projects",
			Handler:     handler{run: (*Shell).projects},
		},
		{
			Name:        "start",
			Args:        []command.Arg{{Name: "project-name", Type: "string", Variadic: true}},
			Level:       command.Authenticated,
			Description: "Start a project",
			Handler:     handler{run: (*Shell).start, complete: (*Shell).completeProjects},
		},
		{
			Name:        "create",
			Args:        []command.Arg{{Name: "prompt", Type: "string", Variadic: true}},
			Level:       command.Authenticated,
			Description: "Create a new project",
			Handler:     handler{run: (*Shell).create},
		},
		{
			Name:        "develop",
			Args:        []command.Arg{{Name: "project-name", Type: "string", Variadic: true}},
			Level:       command.Authenticated,
			Description: "Open a project prompt in the editor without saving it",
			Handler:     handler{run: (*Shell).develop},
		},
		{
			Name: "login",
			Args: []command.Arg{
				{Name: "email", Type: "string"},
				{Name: "password", Type: "string"},
			},
			Level:       command.Public,
			Description: "Log in",
			Handler:     handler{run: (*Shell).login},
		},
		{
			Name: "register",
			Args: []command.Arg{
				{Name: "username", Type: "string"},
				{Name: "email", Type: "string"},
				{Name: "password", Type: "string"},
			},
			Level:       command.Public,
			Description: "Register a new account",
			Handler:     handler{run: (*Shell).register},
		},
		{
			Name:        "logout",
			Level:       command.Authenticated,
			Description: "Log out",
			Handler:     handler{run: (*Shell).logout},
		},
		{
			Name: "set",
			Args: []command.Arg{
				{Name: "key", Type: "string"},
				{Name: "value", Type: "string"},
			},
			Level:       command.Authenticated,
			Description: "Set an environment variable",
			Handler:     handler{run: (*Shell).set},
		},
		{
			Name:        "env",
			Args:        []command.Arg{{Name: "key", Type: "string"}},
			Level:       command.Authenticated,
			Description: "Print environment variables",
			Handler:     handler{run: (*Shell).printEnv},
		},
		{
			Name:        "sudo",
			Args:        []command.Arg{{Name: "command", Type: "string", Variadic: true}},
			Level:       command.Authenticated,
			Description: "Run a command as superuser",
			Handler:     handler{run: (*Shell).sudo},
		},
		{
			Name:        "help",
			Args:        []command.Arg{{Name: "command", Type: "string"}},
			Level:       command.Public,
			Description: "Show available commands",
			Handler:     handler{run: (*Shell).help, complete: (*Shell).completeCommands},
		},
		{
			Name:        "clear",
			Level:       command.Public,
			Description: "Clear the terminal",
			Handler:     handler{run: (*Shell).clear},
		},
		{
			Name:        "exit",
			Level:       command.Public,
			Description: "Exit the current project",
			Handler:     handler{run: (*Shell).exit},
		},
		{
			Name:        "tags",
			Level:       command.Authenticated,
			Description: "List tags",
			Handler:     handler{run: (*Shell).tags},
		},
		{
			Name: "tag",
			Args: []command.Arg{
				{Name: "create | project", Type: "string"},
				{Name: "ProjectName", Type: "string"},
				{Name: "tagName", Type: "string"},
				{Name: "userCanUseThisTag", Type: "bool"},
			},
			Level:       command.Admin,
			Description: "Tag action",
			Handler:     handler{run: (*Shell).tag},
		},
		{
			Name: "set_admin",
			Args: []command.Arg{
				{Name: "email", Type: "string"},
				{Name: "password", Type: "string"},
			},
			Level:       command.Authenticated,
			Description: "Set user as admin",
			Handler:     handler{run: (*Shell).setAdmin},
		},
	}
}

func mustRegistry(descs ...descriptor) *command.Registry[handler] {
	r, err := command.NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Usage returns the usage line of a built-in command.
func Usage(name string) (string, bool) {
	d, ok := builtins.Lookup(name)
	if !ok {
		return "", false
	}
	return d.Usage(), true
}

// Commands lists built-in command names in catalog order.
func Commands() []string {
	return builtins.Names()
}
