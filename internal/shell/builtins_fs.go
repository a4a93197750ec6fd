package shell

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

func (s *Shell) ls(inv *Invocation) error {
	if len(inv.Args) == 0 {
		inv.Print(listing(inv.Dir, inv.Dir)...)
		return nil
	}

	target := inv.Rest(0)
	if strings.ContainsAny(target, "*?[{") {
		if !doublestar.ValidatePattern(target) {
			return usageError("ls", "ls: invalid pattern: "+target)
		}
		var lines []history.Line
		for _, e := range inv.Dir.List() {
			if ok, _ := doublestar.Match(target, e.Name); ok {
				lines = append(lines, entryLine(inv.Dir, inv.Dir, e))
			}
		}
		inv.Print(lines...)
		return nil
	}

	abs := vfs.Resolve(inv.Dir.Path(), target)
	dir, file, ok := vfs.Lookup(s.root, abs)
	switch {
	case ok && dir != nil:
		inv.Print(listing(inv.Dir, dir)...)
	case ok:
		inv.Print(history.Line{
			Text:   file.Name,
			Kind:   history.KindFile,
			Action: &history.Action{Command: "cat " + Escape(abs), Run: true},
		})
	case abs == s.opts.BinMount:
		inv.Print(s.binListing()...)
	default:
		return notFound("ls", "ls: no such file or directory: "+target)
	}
	return nil
}

// listing renders dir's entries. Actions use bare names when dir is the
// working directory and absolute paths otherwise.
func listing(cwd, dir *vfs.Directory) []history.Line {
	entries := dir.List()
	lines := make([]history.Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, entryLine(cwd, dir, e))
	}
	return lines
}

func entryLine(cwd, dir *vfs.Directory, e vfs.Entry) history.Line {
	ref := e.Name
	if dir != cwd {
		ref = path.Join(dir.Path(), e.Name)
	}
	ref = Escape(ref)

	if e.IsDir {
		return history.Line{
			Text:   e.Name,
			Kind:   history.KindDirectory,
			Action: &history.Action{Command: "cd " + ref, Run: true},
		}
	}
	if f, ok := dir.File(e.Name); ok && f.Executable() {
		if dir == cwd {
			ref = "./" + ref
		}
		return history.Line{
			Text:   e.Name,
			Kind:   history.KindProgram,
			Action: &history.Action{Command: ref, Run: true},
		}
	}
	return history.Line{
		Text:   e.Name,
		Kind:   history.KindFile,
		Action: &history.Action{Command: "cat " + ref, Run: true},
	}
}

func (s *Shell) cd(inv *Invocation) error {
	// A bare cd always goes to the root, whatever HOME says.
	target := inv.Rest(0)
	if target == "" {
		target = "/"
	}
	if target == ".." && inv.Dir.IsRoot() {
		inv.Print(history.Text("Already in root directory"))
		return nil
	}

	dir, file, ok := vfs.Lookup(s.root, vfs.Resolve(inv.Dir.Path(), target))
	switch {
	case !ok:
		return notFound("cd", "Directory not found")
	case file != nil:
		return usageError("cd", "cd: not a directory: "+target)
	}

	s.cwd = dir
	name := dir.Name
	if dir.IsRoot() {
		name = "root"
	}
	inv.Print(history.Text("Changed directory to " + name))
	return nil
}

func (s *Shell) pwd(inv *Invocation) error {
	inv.Print(history.Text(inv.Dir.Path()))
	return nil
}

func (s *Shell) mkdir(inv *Invocation) error {
	name := inv.Rest(0)
	if name == "" {
		return usageError("mkdir", "Usage: "+inv.Usage)
	}
	if err := elevated(inv, inv.Dir); err != nil {
		return err
	}
	if _, err := inv.Dir.Mkdir(name); err != nil {
		return fsError("mkdir", name, err)
	}
	inv.Printf("Directory %s created", name)
	return nil
}

// touch takes the last argument as permissions when there are at least three
// and it is a valid mode; everything between the name and the mode is content.
func (s *Shell) touch(inv *Invocation) error {
	if len(inv.Args) == 0 {
		return usageError("touch", "Usage: "+inv.Usage)
	}
	name := Unescape(inv.Args[0])
	rest := inv.Args[1:]
	var perm string
	if len(rest) >= 2 && vfs.ValidPermissions(rest[len(rest)-1]) {
		perm = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	content := CombineArgs(rest, 0)
	if err := utils.ValidateSize([]byte(content), utils.MaxContentSize); err != nil {
		return usageError("touch", fmt.Sprintf("touch: %s: %v", name, err))
	}

	if err := elevated(inv, inv.Dir); err != nil {
		return err
	}
	_, created, err := inv.Dir.Touch(name, content, perm)
	if err != nil {
		return fsError("touch", name, err)
	}
	if created {
		inv.Printf("File %s created", name)
	} else {
		inv.Printf("File %s updated", name)
	}
	return nil
}

func (s *Shell) rm(inv *Invocation) error {
	name := inv.Rest(0)
	if name == "" {
		return usageError("rm", "Usage: "+inv.Usage)
	}
	if err := inv.Dir.Remove(name); err != nil {
		return fsError("rm", name, err)
	}
	inv.Printf("%s removed", name)
	return nil
}

func (s *Shell) cat(inv *Invocation) error {
	target := inv.Rest(0)
	if target == "" {
		return usageError("cat", "Usage: "+inv.Usage)
	}

	dir, file, ok := vfs.Lookup(s.root, vfs.Resolve(inv.Dir.Path(), target))
	switch {
	case !ok:
		return notFound("cat", fmt.Sprintf("cat: %s: No such file", target))
	case dir != nil:
		return usageError("cat", fmt.Sprintf("cat: %s: Is a directory", target))
	case file.Executable():
		return usageError("cat", fmt.Sprintf("cat: %s: Is an executable", target))
	}

	content := strings.TrimSuffix(file.Content, "\n")
	if content == "" {
		return nil
	}
	inv.Print(history.Texts(strings.Split(content, "\n")...)...)
	return nil
}

func (s *Shell) cp(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("cp", "Usage: "+inv.Usage)
	}
	src, dst := Unescape(inv.Args[0]), Unescape(inv.Args[1])
	if err := elevated(inv, inv.Dir); err != nil {
		return err
	}
	if err := inv.Dir.Copy(src, dst); err != nil {
		return fsError("cp", src, err)
	}
	inv.Printf("Copied %s to %s", src, dst)
	return nil
}

func (s *Shell) mv(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("mv", "Usage: "+inv.Usage)
	}
	src, dst := Unescape(inv.Args[0]), Unescape(inv.Args[1])
	if err := elevated(inv, inv.Dir); err != nil {
		return err
	}
	if err := inv.Dir.Rename(src, dst); err != nil {
		return fsError("mv", src, err)
	}
	inv.Printf("Moved %s to %s", src, dst)
	return nil
}

func (s *Shell) chmod(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("chmod", "Usage: "+inv.Usage)
	}
	name, perm := Unescape(inv.Args[0]), inv.Args[1]
	if err := elevated(inv, inv.Dir); err != nil {
		return err
	}
	if err := inv.Dir.Chmod(name, perm); err != nil {
		return fsError("chmod", name, err)
	}
	inv.Printf("Permissions of %s set to %s", name, perm)
	return nil
}

// elevated refuses changes inside a directory that requires elevation unless
// the user is an admin.
func elevated(inv *Invocation, dir *vfs.Directory) error {
	if dir.RequiresElevation && !inv.User.IsAdmin() {
		return &Error{
			Kind: AuthorizationError,
			Op:   inv.Name,
			Msg:  fmt.Sprintf("%s: %s: Permission denied", inv.Name, dir.Path()),
		}
	}
	return nil
}

func fsError(op, name string, err error) *Error {
	switch {
	case errors.Is(err, vfs.ErrExists):
		return &Error{Kind: UserInputError, Op: op, Msg: fmt.Sprintf("%s: %s: File exists", op, name), Err: err}
	case errors.Is(err, vfs.ErrInvalidName):
		return &Error{Kind: UserInputError, Op: op, Msg: fmt.Sprintf("%s: invalid name", op), Err: err}
	case errors.Is(err, vfs.ErrNotFound):
		return &Error{Kind: NotFoundError, Op: op, Msg: fmt.Sprintf("%s: %s: No such file or directory", op, name), Err: err}
	case errors.Is(err, vfs.ErrNotFile):
		return &Error{Kind: UserInputError, Op: op, Msg: fmt.Sprintf("%s: %s: Is a directory", op, name), Err: err}
	case errors.Is(err, vfs.ErrPermissions):
		return &Error{Kind: UserInputError, Op: op, Msg: fmt.Sprintf("%s: invalid permissions, expected three octal digits", op), Err: err}
	default:
		return &Error{Kind: UserInputError, Op: op, Msg: err.Error(), Err: err}
	}
}

func (s *Shell) echo(inv *Invocation) error {
	inv.Print(history.Text(s.env.Expand(inv.Rest(0))))
	return nil
}

func (s *Shell) whoami(inv *Invocation) error {
	name := "anonymous"
	if inv.User != nil {
		name = inv.User.DisplayName()
	}
	inv.Print(history.Text(name))
	return nil
}
