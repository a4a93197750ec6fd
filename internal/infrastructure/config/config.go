package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend modes select which collaborator adapters back the shell.
const (
	BackendMemory   = "memory"
	BackendRemote   = "remote"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Shell     ShellConfig
	Backend   BackendConfig
	Program   ProgramConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// AllowOrigins lists browser origins allowed to call the API; "*" allows any.
	AllowOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ShellConfig tunes every shell session the server hosts.
type ShellConfig struct {
	Provider       string        `envconfig:"SHELL_PROVIDER" default:"OpenAI"`
	TypingInterval time.Duration `envconfig:"SHELL_TYPING_INTERVAL" default:"30ms"`
	SpacePause     int           `envconfig:"SHELL_SPACE_PAUSE" default:"4"`
	SubmitDelay    time.Duration `envconfig:"SHELL_SUBMIT_DELAY" default:"240ms"`
	BootCommand    string        `envconfig:"SHELL_BOOT_COMMAND" default:"ls"`
	BootDelay      time.Duration `envconfig:"SHELL_BOOT_DELAY" default:"500ms"`
	ProvisionDelay time.Duration `envconfig:"SHELL_PROVISION_DELAY" default:"10s"`
	ReloadDelay    time.Duration `envconfig:"SHELL_RELOAD_DELAY" default:"1s"`
	TreeFile       string        `envconfig:"SHELL_TREE_FILE"`
	Path           string        `envconfig:"SHELL_PATH" default:"/bin"`
	Home           string        `envconfig:"SHELL_HOME" default:"/"`
	MaxSessions    int           `envconfig:"SHELL_MAX_SESSIONS" default:"256"`
	CollabTimeout  time.Duration `envconfig:"SHELL_COLLAB_TIMEOUT" default:"15s"`
}

// BackendConfig selects and configures the account and project backends.
type BackendConfig struct {
	Mode        string `envconfig:"BACKEND_MODE" default:"memory"`
	URL         string `envconfig:"BACKEND_URL" default:"http://localhost:3000"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET" default:"fastshell-dev-secret"`
	AdminPass   string `envconfig:"ADMIN_PASS"`
}

// ProgramConfig configures the embedded programs on the bin mount.
type ProgramConfig struct {
	WoprURL string `envconfig:"WOPR_URL"`
	WoprKey string `envconfig:"WOPR_KEY"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendMemory:
	case BackendRemote:
		if c.Backend.URL == "" {
			return fmt.Errorf("BACKEND_URL is required in %s mode", BackendRemote)
		}
	case BackendPostgres:
		if c.Backend.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in %s mode", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown BACKEND_MODE %q", c.Backend.Mode)
	}
	if c.Shell.MaxSessions <= 0 {
		return fmt.Errorf("SHELL_MAX_SESSIONS must be positive")
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// PathDirs splits SHELL_PATH into its directories.
func (s ShellConfig) PathDirs() []string {
	var dirs []string
	for _, d := range strings.Split(s.Path, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			AllowOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Shell: ShellConfig{
			Provider:       "OpenAI",
			TypingInterval: 30 * time.Millisecond,
			SpacePause:     4,
			SubmitDelay:    240 * time.Millisecond,
			BootCommand:    "ls",
			BootDelay:      500 * time.Millisecond,
			ProvisionDelay: 10 * time.Second,
			ReloadDelay:    time.Second,
			Path:           "/bin",
			Home:           "/",
			MaxSessions:    256,
			CollabTimeout:  15 * time.Second,
		},
		Backend: BackendConfig{
			Mode:      BackendMemory,
			URL:       "http://localhost:3000",
			JWTSecret: "fastshell-dev-secret",
		},
	}
}
