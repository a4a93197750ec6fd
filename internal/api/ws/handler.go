package ws

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/infrastructure/monitoring"
	"github.com/fastcode/fastshell/internal/providers/terminal"
	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/history"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	outBuffer  = 16
)

// Handler manages WebSocket connections
type Handler struct {
	sessions *terminal.Manager
	metrics  *monitoring.Metrics
	log      *zap.Logger
	origins  []string
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
// Any origin may connect until WithOrigins narrows it.
func NewHandler(sessions *terminal.Manager, metrics *monitoring.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{sessions: sessions, metrics: metrics, log: log, origins: []string{"*"}}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// WithOrigins restricts browser upgrades to the given origins, the same
// list the CORS middleware serves. "*" or an empty list allows any.
func (h *Handler) WithOrigins(origins []string) *Handler {
	h.origins = slices.Clone(origins)
	return h
}

// checkOrigin accepts requests that carry no Origin header.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 || slices.Contains(h.origins, "*") {
		return true
	}
	if slices.Contains(h.origins, origin) {
		return true
	}
	h.log.Warn("websocket origin rejected", zap.String("origin", origin))
	return false
}

// HandleConnection upgrades the request and streams the session named by :id.
func (h *Handler) HandleConnection(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, terminal.ErrInvalidSessionID) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := id.NewConnID()
	log := h.log.With(zap.String("conn", connID.String()), zap.String("session", sess.ID.String()))
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	log.Info("websocket connected")
	defer log.Info("websocket disconnected")

	events, cancel := sess.Subscribe()
	defer cancel()

	out := make(chan types.WSEvent, outBuffer)
	done := make(chan struct{})
	go h.writePump(conn, events, out, done, log)

	if snap, err := sess.Snapshot(); err == nil {
		h.enqueue(out, snapshotEvent(snap))
	}

	h.readPump(conn, sess, out, log)
	close(done)
}

// readPump handles client messages until the connection fails.
func (h *Handler) readPump(conn *websocket.Conn, sess *terminal.Session, out chan<- types.WSEvent, log *zap.Logger) {
	conn.SetReadLimit(utils.MaxJSONSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		h.record("in", msg.Type)

		if msg.Type == "ping" {
			h.enqueue(out, types.WSEvent{Type: "pong", Timestamp: time.Now().Unix()})
			continue
		}
		if err := h.dispatch(sess, msg); err != nil {
			h.enqueue(out, types.WSEvent{Type: "error", Error: err.Error(), Timestamp: time.Now().Unix()})
			if errors.Is(err, terminal.ErrSessionClosed) {
				return
			}
		}
	}
}

// dispatch applies msg. The resulting snapshot reaches the client through
// the session subscription.
func (h *Handler) dispatch(sess *terminal.Session, msg types.WSMessage) error {
	var err error
	switch msg.Type {
	case "input":
		if err = utils.ValidateLine(msg.Line); err == nil {
			_, err = sess.Submit(msg.Line)
		}
	case "keys":
		if err = utils.ValidateLine(msg.Text); err == nil {
			_, err = sess.SetInput(msg.Text)
		}
	case "complete":
		if err = utils.ValidateLine(msg.Text); err == nil {
			_, err = sess.Complete(msg.Text)
		}
	case "activate":
		if msg.Command == "" {
			return errors.New("activate requires a command")
		}
		_, err = sess.Activate(history.Action{Command: msg.Command, Run: msg.Run})
	case "hover":
		_, err = sess.Hover(msg.Text)
	case "interrupt":
		_, err = sess.Interrupt()
	default:
		return errors.New("unknown message type")
	}
	return err
}

// writePump is the connection's only writer.
func (h *Handler) writePump(conn *websocket.Conn, events <-chan terminal.Event, out <-chan types.WSEvent, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				h.closeWith(conn, "session closed")
				return
			}
			if err := h.write(conn, fromEvent(ev)); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case msg := <-out:
			if err := h.write(conn, msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, ev types.WSEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	h.record("out", ev.Type)
	return conn.WriteJSON(ev)
}

func (h *Handler) closeWith(conn *websocket.Conn, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}

// enqueue drops msg when the writer has fallen behind.
func (h *Handler) enqueue(out chan<- types.WSEvent, msg types.WSEvent) {
	select {
	case out <- msg:
	default:
		h.log.Warn("websocket outbox full, dropping message", zap.String("type", msg.Type))
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

func fromEvent(ev terminal.Event) types.WSEvent {
	out := types.WSEvent{Type: string(ev.Type), Timestamp: time.Now().Unix()}
	switch {
	case ev.Snapshot != nil:
		out.Data = ev.Snapshot
	case ev.Navigation != nil:
		out.Data = ev.Navigation
	}
	return out
}

func snapshotEvent(snap shell.Snapshot) types.WSEvent {
	return types.WSEvent{Type: string(terminal.EventSnapshot), Data: snap, Timestamp: time.Now().Unix()}
}
