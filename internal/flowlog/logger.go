package flowlog

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits flow log lines for a single component. The zap core is
// configured with a message-only encoder: the line format is produced by
// Format, not by zap.
type Logger struct {
	component string
	zl        *zap.Logger
}

// New creates a Logger writing to stderr.
func New(component string) *Logger {
	return NewWithWriter(component, os.Stderr)
}

// NewWithWriter creates a Logger writing to w. Used by tests to capture
// output.
func NewWithWriter(component string, w io.Writer) *Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zapcore.InfoLevel,
	)
	return &Logger{
		component: component,
		zl:        zap.New(core),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Event logs one flow event. Failure events (names containing "error" or
// "failed") are logged at error level, everything else at info.
func (l *Logger) Event(direction, event, summary, traceID string, fields ...Field) {
	l.EventAs(l.component, direction, event, summary, traceID, fields...)
}

// EventAs logs one flow event under a different component name. The AI
// service uses this to tag LLM and tool steps within a single flow.
func (l *Logger) EventAs(component, direction, event, summary, traceID string, fields ...Field) {
	line := Format(component, direction, event, summary, traceID, fields...)

	name := strings.ToLower(event)
	if strings.Contains(name, "error") || strings.Contains(name, "failed") {
		l.zl.Error(line)
		return
	}
	l.zl.Info(line)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
