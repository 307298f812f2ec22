package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
)

// Log is the process logger. Level can be changed at runtime; it also
// serves GET/PUT over HTTP.
type Log struct {
	*zap.Logger
	Level zap.AtomicLevel
}

// Init builds the logger: JSON in prod, console otherwise. Unknown levels
// fall back to info.
func Init(level, env string) (*Log, error) {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Log{
		Logger: base.With(zap.String("app", "attendify"), zap.String("env", env)),
		Level:  lvl,
	}, nil
}

// Sync flushes buffered entries; errors from syncing a terminal are ignored.
func (l *Log) Sync() { _ = l.Logger.Sync() }

// For adds the request fields carried by ctx.
func For(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	var fields []zap.Field
	if op, ok := ctxutil.Op(ctx); ok {
		fields = append(fields, zap.String("op", op))
	}
	if rid, ok := ctxutil.RequestID(ctx); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if email, ok := ctxutil.TeacherEmail(ctx); ok {
		fields = append(fields, zap.String("teacher", email))
	}
	return l.With(fields...)
}
