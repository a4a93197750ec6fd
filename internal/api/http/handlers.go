package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/providers/terminal"
	"github.com/fastcode/fastshell/internal/service"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// maxDiscover caps the number of services Discover returns.
const maxDiscover = 20

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *terminal.Manager
	registry *service.Registry
	backend  string
	started  time.Time
	log      *zap.Logger
}

// NewHandlers creates a new handler set. backend names the account and
// project backend for the health report.
func NewHandlers(sessions *terminal.Manager, registry *service.Registry, backend string, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		sessions: sessions,
		registry: registry,
		backend:  backend,
		started:  time.Now(),
		log:      log,
	}
}

// Register mounts the handlers on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/input", h.Input)
	r.POST("/sessions/:id/complete", h.Complete)
	r.POST("/sessions/:id/type", h.Type)
	r.POST("/sessions/:id/interrupt", h.Interrupt)
	r.DELETE("/sessions/:id", h.DeleteSession)

	r.GET("/services", h.ListServices)
	r.POST("/services/discover", h.DiscoverServices)
	r.POST("/services/execute", h.ExecuteService)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "fastshell",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          Version,
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"sessions":         h.sessions.Count(),
		"backend":          h.backend,
		"service_registry": h.registry.Stats(),
	})
}

// CreateSession opens a shell session. The body is optional.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.CreateSessionRequest
	if !bindOptional(c, &req) {
		return
	}
	boot := req.Boot == nil || *req.Boot

	sess, err := h.sessions.CreateSession(c.Request.Context(), req.Token, boot)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		h.sessionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID.String(),
		"token":      sess.Token(),
		"snapshot":   snap,
	})
}

// ListSessions lists all live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns a session's summary and snapshot
func (h *Handlers) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	info, err := sess.Info()
	if err != nil {
		h.sessionError(c, err)
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":     info,
		"token":       sess.Token(),
		"snapshot":    snap,
		"navigations": sess.Navigations(),
	})
}

// Input submits a command line
func (h *Handlers) Input(c *gin.Context) {
	var req types.InputRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateLine(req.Line); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, func(s *terminal.Session) (shell.Snapshot, error) { return s.Submit(req.Line) })
}

// Complete tab-completes a partial line
func (h *Handlers) Complete(c *gin.Context) {
	var req types.CompleteRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateLine(req.Input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, func(s *terminal.Session) (shell.Snapshot, error) { return s.Complete(req.Input) })
}

// Type animates text into the prompt
func (h *Handlers) Type(c *gin.Context) {
	var req types.TypeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateLine(req.Text); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.apply(c, func(s *terminal.Session) (shell.Snapshot, error) { return s.Type(req.Text, req.Suppress) })
}

// Interrupt stops a running program, typing or composing
func (h *Handlers) Interrupt(c *gin.Context) {
	h.apply(c, (*terminal.Session).Interrupt)
}

// DeleteSession closes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.sessions.Kill(sess.ID.String()); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sess.ID.String(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		switch cat {
		case types.CategoryAuth, types.CategoryStorage, types.CategoryTerminal:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + raw})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices discovers relevant services for an intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateLine(req.Intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 || req.Limit > maxDiscover {
		req.Limit = 5
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Intent,
		"services": h.registry.Discover(req.Intent, req.Limit),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var appCtx *types.Context
	if req.SessionID != nil {
		if err := utils.ValidateID(*req.SessionID, "session_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		appCtx = &types.Context{SessionID: req.SessionID}
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	switch {
	case errors.Is(err, service.ErrInvalidToolID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.log.Error("service execution failed", zap.String("tool", req.ToolID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// apply runs op against the session named in the path and replies with the
// resulting snapshot.
func (h *Handlers) apply(c *gin.Context, op func(*terminal.Session) (shell.Snapshot, error)) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := op(sess)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

func (h *Handlers) session(c *gin.Context) (*terminal.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handlers) sessionError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, terminal.ErrInvalidSessionID):
		status = http.StatusBadRequest
	case errors.Is(err, terminal.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, terminal.ErrSessionClosed):
		status = http.StatusGone
	case errors.Is(err, terminal.ErrTooManySessions):
		status = http.StatusServiceUnavailable
	default:
		h.log.Error("session operation failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes a size-limited JSON body, replying 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// bindOptional is bindJSON for endpoints whose body may be empty.
func bindOptional(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
