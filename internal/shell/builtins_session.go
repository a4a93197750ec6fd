package shell

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/history"
)

func (s *Shell) printEnv(inv *Invocation) error {
	if len(inv.Args) == 0 {
		vars := s.env.Vars()
		lines := make([]history.Line, len(vars))
		for i, v := range vars {
			lines[i] = history.Text(v.Key + "=" + v.Value)
		}
		inv.Print(lines...)
		return nil
	}
	key := inv.Args[0]
	value, _ := s.env.Lookup(key)
	inv.Print(history.Text(key + "=" + value))
	return nil
}

func (s *Shell) set(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("set", "Usage: "+inv.Usage)
	}
	key, value := Unescape(inv.Args[0]), inv.Rest(1)
	s.env.Set(key, value)
	s.providerKeys[key] = value
	s.persistProviderKeys()
	inv.Print(history.Text(key + "=" + value))
	return nil
}

func (s *Shell) loadProviderKeys(prefs collab.Preferences) {
	raw := prefs[providerKeysPref]
	if raw == "" {
		return
	}
	var keys map[string]string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		s.log.Warn("ignoring malformed provider keys preference", zap.Error(err))
		return
	}
	for k, v := range keys {
		s.providerKeys[k] = v
		s.env.Set(k, v)
	}
}

// persistProviderKeys writes the provider key map into the user's
// preferences without reporting back to the prompt.
func (s *Shell) persistProviderKeys() {
	data, err := json.Marshal(s.providerKeys)
	if err != nil {
		s.log.Error("failed to encode provider keys", zap.Error(err))
		return
	}
	auth := s.auth
	timeout := s.opts.CallTimeout
	start := time.Now()

	s.sched.Go(func() func() {
		ctx, cancel := callContext(timeout)
		defer cancel()
		err := savePreference(ctx, auth, providerKeysPref, string(data))
		return func() {
			s.obs.CollaboratorCall("set_preferences", outcome(err), time.Since(start))
			if err != nil {
				s.log.Warn("failed to persist provider keys", zap.Error(err))
			}
		}
	})
}

func savePreference(ctx context.Context, auth collab.Auth, key, value string) error {
	current, err := auth.Preferences(ctx)
	if err != nil {
		return err
	}
	prefs := make(collab.Preferences, len(current)+1)
	for k, v := range current {
		prefs[k] = v
	}
	prefs[key] = value
	return auth.SetPreferences(ctx, prefs)
}

func (s *Shell) clear(inv *Invocation) error {
	s.history.Clear()
	return nil
}

// help prints every usage. Commands that take arguments are typed without
// being run when their line is activated.
func (s *Shell) help(inv *Invocation) error {
	if len(inv.Args) == 0 {
		all := builtins.All()
		lines := make([]history.Line, 0, len(all))
		for _, d := range all {
			text := d.Usage() + " - " + d.Description
			if len(d.Args) == 0 {
				lines = append(lines, history.Link(text, d.Name))
			} else {
				lines = append(lines, history.Suggest(text, d.Name+" "))
			}
		}
		inv.Print(lines...)
		return nil
	}

	d, ok := builtins.Lookup(inv.Args[0])
	if !ok {
		return notFound("help", "Command not found. Type 'help' to see all available commands.")
	}
	inv.Print(history.Text(d.Usage()), history.Text(d.Description))
	return nil
}

func (s *Shell) login(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("login", "Usage: "+inv.Usage,
			history.Link("register - create a new account", "register"))
	}
	email, password := Unescape(inv.Args[0]), Unescape(inv.Args[1])
	auth := s.auth

	var (
		user  *collab.User
		prefs collab.Preferences
	)
	inv.Print(history.Text("Logging in..."))
	inv.Call("login", func(ctx context.Context) error {
		if err := auth.Login(ctx, email, password); err != nil {
			return err
		}
		u, err := auth.CurrentUser(ctx)
		if err != nil {
			return err
		}
		user = u
		prefs, _ = auth.Preferences(ctx)
		return nil
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("login", "An unknown error occurred while logging in", err))
			return
		}
		s.setUser(user)
		s.loadProviderKeys(prefs)
		inv.Print(history.Text("Logged in as " + email))
	})
	return nil
}

func (s *Shell) register(inv *Invocation) error {
	if len(inv.Args) < 3 {
		return usageError("register", "Usage: "+inv.Usage)
	}
	username, email, password := Unescape(inv.Args[0]), Unescape(inv.Args[1]), Unescape(inv.Args[2])
	auth := s.auth

	inv.Printf("Creating account for %s (%s)...", username, email)
	inv.Call("register", func(ctx context.Context) error {
		return auth.Register(ctx, username, email, password)
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("register", "An unknown error occurred while creating your account", err))
			return
		}
		inv.Print(
			history.Text("Account created successfully"),
			history.Suggest("login - log in to your account", "login "+Escape(email)+" "),
		)
	})
	return nil
}

// logout reloads the session once the account has been signed out.
func (s *Shell) logout(inv *Invocation) error {
	auth := s.auth
	inv.Print(history.Text("Logging out..."))
	inv.Call("logout", auth.Logout, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("logout", "error deleting current user session", err))
			return
		}
		inv.After(s.opts.ReloadDelay, s.reload)
	})
	return nil
}

func (s *Shell) reload() {
	if err := s.reset(); err != nil {
		s.log.Error("failed to reset session", zap.Error(err))
		return
	}
	s.log.Info("session reloaded")
	s.nav.Navigate("/", collab.NavigateOptions{Reload: true})
	s.Boot()
}

func (s *Shell) exit(inv *Invocation) error {
	s.workspace.ShowProjects = false
	s.workspace.SelectedProject = nil
	s.workspace.CreatingProject = false
	s.workspace.CreatePrompt = ""
	s.nav.Navigate("/home", collab.NavigateOptions{})
	inv.Print(history.Text("Exiting..."))
	return nil
}

func (s *Shell) setAdmin(inv *Invocation) error {
	if len(inv.Args) < 2 {
		return usageError("set_admin", "Usage: "+inv.Usage)
	}
	email, pass := Unescape(inv.Args[0]), Unescape(inv.Args[1])
	auth := s.auth

	var refreshed *collab.User
	inv.Printf("Setting admin for %s...", email)
	inv.Call("set_admin", func(ctx context.Context) error {
		if err := auth.SetAdmin(ctx, email, pass); err != nil {
			return err
		}
		refreshed, _ = auth.CurrentUser(ctx)
		return nil
	}, func(err error) {
		if err != nil {
			inv.Fail(collaboratorError("set_admin", "An unknown error occurred while setting admin", err))
			return
		}
		if refreshed != nil {
			s.setUser(refreshed)
		}
		inv.Printf("Admin set for %s successfully", email)
	})
	return nil
}

var sandwichSlices = []string{
	`WWwWWW\_/WW`,
	`MM\_/wMMMMM`,
	`$%$%$%$%$$%`,
	`^V^v^vV^v^V`,
	"",
}

func sandwichSlice() string {
	return sandwichSlices[rand.IntN(len(sandwichSlices))]
}

// sudo never elevates. Admin rights come from set_admin.
func (s *Shell) sudo(inv *Invocation) error {
	inv.Print(history.Texts(
		"sudo: superuser unavailable",
		"but I made you a sandwich",
		"",
		" ____|____",
		`/_________\`,
		sandwichSlice(),
		"{'_.-.-'-.}",
		sandwichSlice(),
		`\_________/`,
	)...)
	return nil
}
