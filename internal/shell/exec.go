package shell

import (
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/program"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

// execPath runs name as a mounted program or an executable file. It reports
// false when nothing on PATH (or at the given path) matched.
func (s *Shell) execPath(name string, entry id.EntryID, depth int) bool {
	if p, ok := s.findProgram(name); ok {
		s.startProgram(p, entry)
		return true
	}

	f, ok := s.findExecutable(name)
	if !ok {
		return false
	}
	if depth >= s.opts.ScriptDepth {
		s.history.AppendTo(entry, history.Error(name+": too many levels of script nesting"))
		return true
	}
	for _, line := range strings.Split(f.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if s.running != nil {
			break
		}
		s.dispatch(line, depth+1)
	}
	return true
}

func (s *Shell) findProgram(name string) (program.Program, bool) {
	if !s.binMounted() {
		return nil, false
	}
	p, ok := s.opts.Programs[name]
	return p, ok
}

// findExecutable looks name up relative to the working directory when it
// contains a slash, and in each VFS directory on PATH otherwise.
func (s *Shell) findExecutable(name string) (*vfs.File, bool) {
	if strings.Contains(name, "/") {
		_, f, ok := vfs.Lookup(s.root, vfs.Resolve(s.cwd.Path(), name))
		if ok && f != nil && f.Executable() {
			return f, true
		}
		return nil, false
	}
	for _, dir := range s.pathDirs() {
		if dir == s.opts.BinMount {
			continue
		}
		d, ok := vfs.Walk(s.root, dir)
		if !ok {
			continue
		}
		if f, ok := d.File(name); ok && f.Executable() {
			return f, true
		}
	}
	return nil, false
}

// pathCommands lists every command name reachable through PATH.
func (s *Shell) pathCommands() []string {
	var names []string
	for _, dir := range s.pathDirs() {
		if dir == s.opts.BinMount {
			names = append(names, builtins.Names()...)
			names = append(names, s.programNames()...)
			continue
		}
		d, ok := vfs.Walk(s.root, dir)
		if !ok {
			continue
		}
		for _, f := range d.Files() {
			if f.Executable() {
				names = append(names, f.Name)
			}
		}
	}
	return names
}

func (s *Shell) programNames() []string {
	names := make([]string, 0, len(s.opts.Programs))
	for name := range s.opts.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// binListing renders the bin mount as if it were a directory.
func (s *Shell) binListing() []history.Line {
	var lines []history.Line
	for _, name := range append(builtins.Names(), s.programNames()...) {
		lines = append(lines, history.Line{
			Text:   name,
			Kind:   history.KindProgram,
			Action: &history.Action{Command: "help " + name},
		})
	}
	return lines
}

func (s *Shell) startProgram(p program.Program, entry id.EntryID) {
	res := p.Step("", nil)
	s.history.AppendTo(entry, programLines(res.Output)...)
	if res.ExitStatus != 0 || disconnected(res.Output) {
		return
	}

	r := &run{prog: p, state: res.State, prompt: res.Prompt}
	s.running = r
	s.state = StateRunningProgram
	s.log.Info("program started", zap.String("program", p.Name()))
	s.await(r, entry, res.Pending)
}

// feedProgram hands a submitted line to the running program.
func (s *Shell) feedProgram(line string) {
	r := s.running
	entry := s.history.RecordProgram(r.prog.Name(), r.prompt, line)

	res := r.prog.Step(line, r.state)
	s.history.AppendTo(entry, programLines(res.Output)...)
	if res.ExitStatus != 0 || disconnected(res.Output) {
		s.stopProgram()
		return
	}
	r.state = res.State
	if res.Prompt != "" {
		r.prompt = res.Prompt
	}
	s.await(r, entry, res.Pending)
}

// await runs a program's background work and applies the reply if the same
// run is still active when it arrives.
func (s *Shell) await(r *run, entry id.EntryID, pending program.Pending) {
	if pending == nil {
		return
	}
	gen := s.generation
	timeout := s.opts.CallTimeout

	s.inflight++
	s.refreshMode()
	s.sched.Go(func() func() {
		ctx, cancel := callContext(timeout)
		defer cancel()
		reply := pending(ctx)

		return func() {
			if gen != s.generation {
				return
			}
			s.inflight--
			defer s.changed()
			defer s.refreshMode()
			if s.running != r {
				return
			}
			s.history.AppendTo(entry, programLines(reply.Output)...)
			if len(reply.State) > 0 {
				if r.state == nil {
					r.state = make(program.State, len(reply.State))
				}
				for k, v := range reply.State {
					r.state[k] = v
				}
			}
			if disconnected(reply.Output) {
				s.stopProgram()
			}
		}
	})
}

func (s *Shell) stopProgram() {
	if s.running != nil {
		s.log.Info("program stopped", zap.String("program", s.running.prog.Name()))
	}
	s.running = nil
	s.state = StateIdle
}

func programLines(output []string) []history.Line {
	lines := make([]history.Line, len(output))
	for i, o := range output {
		lines[i] = history.Line{Text: o, Kind: history.KindProgram}
	}
	return lines
}

func disconnected(output []string) bool {
	return slices.ContainsFunc(output, func(line string) bool {
		return strings.Contains(line, program.Disconnected)
	})
}
