// Package logger wraps zap with an optional in-memory capture so the
// demo page can embed the sweep trace next to the rendered diagram.
package logger

import (
	"bytes"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	log    *zap.Logger
	logBuf *bytes.Buffer
}

// New returns a debug-level console logger that also captures its
// output for HTMLLogs.
func New() *ZapLogger {
	logBuf := &bytes.Buffer{}

	config := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewConsoleEncoder(config)
	core := zapcore.NewCore(encoder, zapcore.AddSync(logBuf), zap.DebugLevel)
	log := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	return &ZapLogger{log: log, logBuf: logBuf}
}

// Nop returns a logger that discards everything. Library callers pass
// it when no tracing is wanted.
func Nop() *ZapLogger {
	return &ZapLogger{log: zap.NewNop()}
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("[2006-01-02 | 15:04:05]"))
}

// HTMLLogs returns the captured output as an escaped <pre> block.
func (z *ZapLogger) HTMLLogs() string {
	if z.logBuf == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(z.logBuf.String()))
	b.WriteString("</pre>")
	return b.String()
}

// ClearLogs drops the captured output.
func (z *ZapLogger) ClearLogs() {
	if z.logBuf != nil {
		z.logBuf.Reset()
	}
}

func (z *ZapLogger) Info(msg string, fields ...zap.Field) {
	z.log.Info(msg, fields...)
}

func (z *ZapLogger) Debug(msg string, fields ...zap.Field) {
	z.log.Debug(msg, fields...)
}

func (z *ZapLogger) Error(msg string, fields ...zap.Field) {
	z.log.Error(msg, fields...)
}

func (z *ZapLogger) Fatal(msg string, fields ...zap.Field) {
	z.log.Fatal(msg, fields...)
}
