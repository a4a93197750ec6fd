package shell

import (
	"time"

	"github.com/fastcode/fastshell/internal/shell/animator"
	"github.com/fastcode/fastshell/internal/shell/program"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

// Options tunes a shell session. Zero values are replaced by the defaults.
type Options struct {
	// Provider is the LLM provider whose key create requires.
	Provider string

	Home        string
	Path        string
	BinMount    string
	DefaultUser string

	// Tree is the bootstrap filesystem. Nil means the embedded default.
	Tree *vfs.Descriptor

	// Programs are mounted on BinMount.
	Programs program.Set

	Typing         animator.Options
	BootCommand    string
	BootDelay      time.Duration
	ProvisionDelay time.Duration
	ReloadDelay    time.Duration
	CallTimeout    time.Duration
	ScriptDepth    int
}

// DefaultOptions returns the stock session settings.
func DefaultOptions() Options {
	return Options{
		Provider:       "OpenAI",
		Home:           "/",
		Path:           "/bin",
		BinMount:       "/bin",
		DefaultUser:    "guest",
		Typing:         animator.DefaultOptions(),
		BootCommand:    "ls",
		BootDelay:      500 * time.Millisecond,
		ProvisionDelay: 10 * time.Second,
		ReloadDelay:    time.Second,
		CallTimeout:    15 * time.Second,
		ScriptDepth:    4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Provider == "" {
		o.Provider = d.Provider
	}
	if o.Home == "" {
		o.Home = d.Home
	}
	if o.Path == "" {
		o.Path = d.Path
	}
	if o.BinMount == "" {
		o.BinMount = d.BinMount
	}
	if o.DefaultUser == "" {
		o.DefaultUser = d.DefaultUser
	}
	if o.Tree == nil {
		o.Tree = vfs.DefaultDescriptor()
	}
	if o.Typing.Interval <= 0 {
		o.Typing = d.Typing
	}
	if o.ProvisionDelay <= 0 {
		o.ProvisionDelay = d.ProvisionDelay
	}
	if o.ReloadDelay <= 0 {
		o.ReloadDelay = d.ReloadDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = d.CallTimeout
	}
	if o.ScriptDepth <= 0 {
		o.ScriptDepth = d.ScriptDepth
	}
	return o
}
