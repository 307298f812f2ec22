package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestValues(t *testing.T) {
	ctx := WithOp(WithTeacherEmail(context.Background(), "t@school.id"), "import_grades")
	if e, ok := TeacherEmail(ctx); !ok || e != "t@school.id" {
		t.Fatalf("email = %q %v", e, ok)
	}
	if op, ok := Op(ctx); !ok || op != "import_grades" {
		t.Fatalf("op = %q %v", op, ok)
	}
	if _, ok := TeacherEmail(context.Background()); ok {
		t.Fatal("unexpected email")
	}
}

func TestWithDBTimeout_KeepsShorterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > 100*time.Millisecond {
		t.Fatalf("deadline = %v", dl)
	}

	ctx3, cancel3 := WithDBTimeout(context.Background())
	defer cancel3()
	dl, _ = ctx3.Deadline()
	if time.Until(dl) < 4*time.Second {
		t.Fatalf("default deadline too short: %v", time.Until(dl))
	}
}
