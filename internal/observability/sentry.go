package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Pandoravox1/attendify-sub000/internal/ctxutil"
)

// InitSentry is a no-op without a DSN. The returned func flushes pending
// events on shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureCtx reports err tagged with the operation and teacher from ctx.
func CaptureCtx(ctx context.Context, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		if op, ok := ctxutil.Op(ctx); ok {
			scope.SetTag("op", op)
		}
		if rid, ok := ctxutil.RequestID(ctx); ok {
			scope.SetTag("request_id", rid)
		}
		if email, ok := ctxutil.TeacherEmail(ctx); ok {
			scope.SetUser(sentry.User{Email: email})
		}
		sentry.CaptureException(err)
	})
}
