package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fastcode/fastshell/internal/shared/id"
)

// Logger is the process logger. Packages take a *Logger and derive named
// children from it rather than building their own.
type Logger struct {
	*zap.Logger
}

// Config selects level, encoding and sinks.
type Config struct {
	Level       string // debug, info, warn or error
	Development bool
	OutputPaths []string
}

// DefaultConfig logs info and above as JSON to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", OutputPaths: []string{"stdout"}}
}

// New builds a logger. Development mode switches to a colored console
// encoder and keeps stack traces on warnings.
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	zc.EncoderConfig = productionEncoder()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig = developmentEncoder()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.ErrorOutputPaths = []string{"stderr"}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l}, nil
}

// NewDefault falls back to Nop if the default sinks cannot be opened.
func NewDefault() *Logger {
	if l, err := New(DefaultConfig()); err == nil {
		return l
	}
	return Nop()
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Component returns a named child, e.g. "terminal" or "http".
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Named(name)}
}

// Session tags every line with the shell session it belongs to.
func (l *Logger) Session(sid id.SessionID) *zap.Logger {
	return l.With(zap.String("session", string(sid)))
}

func productionEncoder() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc
}

func developmentEncoder() zapcore.EncoderConfig {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	return enc
}
