package ctxutil

import (
	"context"
	"time"
)

// private key type so values never collide with other packages
type key int

const (
	keyTeacherEmail key = iota
	keyRequestID
	keyOpName
)

// WithTeacherEmail / TeacherEmail carry the signed-in teacher.
func WithTeacherEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyTeacherEmail, email)
}

func TeacherEmail(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTeacherEmail).(string)
	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok
}

// WithOp / Op name the operation for logs and error reports.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOpName).(string)
	return v, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout bounds a store call, keeping a shorter parent deadline.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
