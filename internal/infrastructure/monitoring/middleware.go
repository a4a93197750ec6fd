package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware counts every request by route template and status, so session
// IDs never become label values. Websocket upgrades are counted but not
// timed since they last as long as the stream.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		upgrade := c.IsWebsocket()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		if upgrade {
			elapsed = untimed
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), elapsed)
	}
}

const untimed time.Duration = -1

// Timer times one service tool execution. A nil *Timer is valid and records
// nothing.
type Timer struct {
	m       *Metrics
	service string
	tool    string
	start   time.Time
}

// NewTimer starts timing tool of service. It returns nil when m is nil.
func NewTimer(m *Metrics, service, tool string) *Timer {
	if m == nil {
		return nil
	}
	return &Timer{m: m, service: service, tool: tool, start: time.Now()}
}

// Stop records the elapsed time under status.
func (t *Timer) Stop(status string) {
	if t == nil {
		return
	}
	t.m.RecordServiceCall(t.service, t.tool, status, time.Since(t.start))
}
