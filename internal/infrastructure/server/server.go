package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/fastcode/fastshell/internal/api/http"
	"github.com/fastcode/fastshell/internal/api/middleware"
	"github.com/fastcode/fastshell/internal/api/ws"
	"github.com/fastcode/fastshell/internal/infrastructure/config"
	"github.com/fastcode/fastshell/internal/infrastructure/logging"
	"github.com/fastcode/fastshell/internal/infrastructure/monitoring"
	"github.com/fastcode/fastshell/internal/providers/auth"
	"github.com/fastcode/fastshell/internal/providers/postgres"
	"github.com/fastcode/fastshell/internal/providers/projects"
	"github.com/fastcode/fastshell/internal/providers/remote"
	"github.com/fastcode/fastshell/internal/providers/terminal"
	"github.com/fastcode/fastshell/internal/service"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/animator"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/program"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *terminal.Manager
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	closers  []func() error
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing fastshell server",
		zap.String("addr", cfg.Addr()),
		zap.String("backend", cfg.Backend.Mode),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	registry := service.NewRegistry(
		service.WithMetrics(metrics),
		service.WithLogger(logger.Component("registry").Logger),
	)

	s := &Server{
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}

	backend, err := s.openBackend(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	opts, err := ShellOptions(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.sessions = terminal.NewManager(terminal.Config{
		Backend:     backend,
		Options:     opts,
		MaxSessions: cfg.Shell.MaxSessions,
		Logger:      logger,
		Observer:    metrics,
	})
	if err := registry.Register(terminal.NewProvider(s.sessions)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register terminal provider: %w", err)
	}

	s.router = s.routes(reg)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully", zap.Any("services", registry.Stats()))
	return s, nil
}

// openBackend wires the account and project collaborators for the configured
// mode and registers their services.
func (s *Server) openBackend(ctx context.Context) (terminal.Backend, error) {
	cfg := s.config.Backend
	log := s.logger

	switch cfg.Mode {
	case config.BackendRemote:
		client := remote.NewClient(remote.Config{
			BaseURL:  cfg.URL,
			Timeout:  s.config.Shell.CollabTimeout,
			RetryMax: 2,
			Logger:   log.Logger,
		})
		log.Info("Using remote backend", zap.String("url", cfg.URL))
		return func(token string) terminal.Binding {
			acct := client.Session(token)
			return terminal.Binding{Auth: acct, Store: acct.Store()}
		}, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open project database: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate project database: %w", err)
		}
		log.Info("Using postgres project store")
		return s.localBackend(store)

	default:
		log.Info("Using in-memory backend")
		return s.localBackend(projects.NewMemory())
	}
}

// localBackend serves accounts from an in-process directory.
func (s *Server) localBackend(store collab.ProjectStore) (terminal.Backend, error) {
	dir := auth.NewDirectory(s.config.Backend.JWTSecret, s.config.Backend.AdminPass)
	if err := s.registry.Register(auth.NewProvider(dir)); err != nil {
		return nil, fmt.Errorf("failed to register auth provider: %w", err)
	}
	if err := s.registry.Register(projects.NewProvider(store)); err != nil {
		return nil, fmt.Errorf("failed to register projects provider: %w", err)
	}
	return func(token string) terminal.Binding {
		return terminal.Binding{Auth: dir.Session(token), Store: store}
	}, nil
}

func (s *Server) routes(reg *prometheus.Registry) *gin.Engine {
	cfg := s.config
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(s.logger.Component("http").Logger))
	router.Use(monitoring.Middleware(s.metrics))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(s.sessions, s.registry, cfg.Backend.Mode, s.logger.Component("api").Logger)
	handlers.Register(router)

	stream := ws.NewHandler(s.sessions, s.metrics, s.logger.Component("ws").Logger).WithOrigins(corsCfg.AllowOrigins)
	router.GET("/stream/:id", stream.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.Snapshot())
	})

	return router
}

// ShellOptions builds the per-session shell settings from cfg.
func ShellOptions(cfg *config.Config) (shell.Options, error) {
	opts := shell.DefaultOptions()
	opts.Provider = cfg.Shell.Provider
	opts.Home = cfg.Shell.Home
	opts.Path = cfg.Shell.Path
	opts.BootCommand = cfg.Shell.BootCommand
	opts.BootDelay = cfg.Shell.BootDelay
	opts.ProvisionDelay = cfg.Shell.ProvisionDelay
	opts.ReloadDelay = cfg.Shell.ReloadDelay
	opts.CallTimeout = cfg.Shell.CollabTimeout
	opts.Typing = animator.Options{
		Interval:    cfg.Shell.TypingInterval,
		SpaceFactor: cfg.Shell.SpacePause,
		SubmitDelay: cfg.Shell.SubmitDelay,
		Jitter:      animator.DefaultOptions().Jitter,
	}

	if cfg.Shell.TreeFile != "" {
		tree, err := vfs.LoadDescriptor(cfg.Shell.TreeFile)
		if err != nil {
			return shell.Options{}, fmt.Errorf("failed to load filesystem tree: %w", err)
		}
		opts.Tree = tree
	}

	opts.Programs = program.NewSet(program.NewWOPR(program.WOPRConfig{
		URL:     cfg.Program.WoprURL,
		APIKey:  cfg.Program.WoprKey,
		Timeout: cfg.Shell.CollabTimeout,
	}))
	return opts, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Close releases sessions and backends
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.sessions != nil {
		s.sessions.CloseAll()
	}

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("Failed to close backend", zap.Error(err))
			errs = append(errs, err)
		}
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
