package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fastcode/fastshell/internal/infrastructure/config"
	"github.com/fastcode/fastshell/internal/infrastructure/logging"
	"github.com/fastcode/fastshell/internal/infrastructure/server"
	"github.com/fastcode/fastshell/internal/providers/auth"
	"github.com/fastcode/fastshell/internal/providers/projects"
	"github.com/fastcode/fastshell/internal/providers/remote"
	"github.com/fastcode/fastshell/internal/providers/terminal"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/history"
)

// completePrefix asks for completion instead of running the line.
const completePrefix = "?"

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: "Start an interactive session. Type a line to run it, prefix it with " +
			completePrefix + " to complete it, and type quit or press Ctrl-D to leave.",
		RunE: runRepl,
	}

	cmd.Flags().String("url", "", "Product API URL; empty keeps accounts and projects in memory")
	cmd.Flags().String("token", "", "Session token to restore")
	cmd.Flags().Bool("boot", true, "Type the boot command on start")
	cmd.Flags().Bool("no-color", false, "Disable colors")
	cmd.Flags().Bool("debug", false, "Log to stderr at debug level")

	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	token, _ := cmd.Flags().GetString("token")
	boot, _ := cmd.Flags().GetBool("boot")
	noColor, _ := cmd.Flags().GetBool("no-color")
	debug, _ := cmd.Flags().GetBool("debug")

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if noColor || !interactive {
		color.NoColor = true
	}

	logger := logging.Nop()
	if debug {
		l, err := logging.New(logging.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}})
		if err != nil {
			return err
		}
		logger = l
	}

	cfg := config.LoadOrDefault()
	opts, err := server.ShellOptions(cfg)
	if err != nil {
		return err
	}

	manager := terminal.NewManager(terminal.Config{
		Backend:     localBackend(cfg, url),
		Options:     opts,
		MaxSessions: 1,
		Logger:      logger,
	})
	defer manager.CloseAll()

	sess, err := manager.CreateSession(cmd.Context(), token, boot)
	if err != nil {
		return err
	}
	return repl(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
}

func localBackend(cfg *config.Config, url string) terminal.Backend {
	if url != "" {
		client := remote.NewClient(remote.Config{BaseURL: url, Timeout: cfg.Shell.CollabTimeout})
		return func(token string) terminal.Binding {
			acct := client.Session(token)
			return terminal.Binding{Auth: acct, Store: acct.Store()}
		}
	}
	dir := auth.NewDirectory(cfg.Backend.JWTSecret, cfg.Backend.AdminPass)
	store := projects.NewMemory()
	return func(token string) terminal.Binding {
		return terminal.Binding{Auth: dir.Session(token), Store: store}
	}
}

// repl feeds lines from in to sess and renders its events to out until in
// ends or the user quits.
func repl(ctx context.Context, sess *terminal.Session, in io.Reader, out io.Writer, interactive bool) error {
	r := newRenderer(out, interactive)
	events, cancel := sess.Subscribe()
	defer cancel()

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for ev := range events {
			r.event(ev)
		}
	}()

	if snap, err := sess.Snapshot(); err == nil {
		r.snapshot(snap)
	}

	// pending is the prompt left behind by the last completion. An empty line
	// runs it.
	var pending string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "quit" {
			break
		}
		if line == "" && pending != "" {
			line = pending
		}

		var (
			snap shell.Snapshot
			err  error
		)
		if partial, ok := strings.CutPrefix(line, completePrefix); ok {
			snap, err = sess.Complete(partial)
		} else {
			snap, err = sess.Submit(line)
		}
		if err != nil {
			return err
		}
		pending = snap.Input
		if pending != "" {
			r.pending(pending)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	settle(sess, settleTimeout)
	cancel()
	<-rendered
	return nil
}

const settleTimeout = 5 * time.Second

// settle waits until the session has no output in flight.
func settle(sess *terminal.Session, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap, err := sess.Snapshot()
		if err != nil || snap.Mode != history.ModeOutputting {
			// One more turn of the loop flushes the last change notification.
			_, _ = sess.Snapshot()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}
