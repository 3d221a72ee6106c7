package check

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInvokerUnknownType(t *testing.T) {
	inv := NewInvoker(NewRegistry())

	out := inv.Invoke(context.Background(), "nope", nil)
	if out.Kind != KindError {
		t.Errorf("Kind = %v, want KindError", out.Kind)
	}
	if !strings.Contains(out.Message, `unknown check type "nope"`) {
		t.Errorf("Message = %q, want unknown-type message", out.Message)
	}
	if out.Raw["check_type"] != "nope" {
		t.Errorf("Raw[check_type] = %v, want %q", out.Raw["check_type"], "nope")
	}
}

func TestInvokerContainsPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("boom", CheckerFunc(func(ctx context.Context, config map[string]any) Outcome {
		panic("kaboom")
	}))
	inv := NewInvoker(r)

	out := inv.Invoke(context.Background(), "boom", nil)
	if out.Kind != KindError {
		t.Fatalf("Kind = %v, want KindError", out.Kind)
	}
	if !strings.Contains(out.Message, "check panicked") {
		t.Errorf("Message = %q, want panic message", out.Message)
	}
	if out.Raw["panic_value"] != "kaboom" {
		t.Errorf("Raw[panic_value] = %v, want %q", out.Raw["panic_value"], "kaboom")
	}
	if out.Raw["panic_type"] != "string" {
		t.Errorf("Raw[panic_type] = %v, want %q", out.Raw["panic_type"], "string")
	}
}

func TestInvokerSetsElapsed(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("slow", CheckerFunc(func(ctx context.Context, config map[string]any) Outcome {
		time.Sleep(20 * time.Millisecond)
		return Success("done")
	}))
	inv := NewInvoker(r)

	out := inv.Invoke(context.Background(), "slow", nil)
	if out.Kind != KindSuccess {
		t.Fatalf("Kind = %v, want KindSuccess", out.Kind)
	}
	if out.Elapsed < 20*time.Millisecond {
		t.Errorf("Elapsed = %v, want >= 20ms", out.Elapsed)
	}
}

func TestInvokerPassesConfig(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("echo", CheckerFunc(func(ctx context.Context, config map[string]any) Outcome {
		host, _ := config["host"].(string)
		return Success(host)
	}))
	inv := NewInvoker(r)

	out := inv.Invoke(context.Background(), "echo", map[string]any{"host": "example.com"})
	if out.Message != "example.com" {
		t.Errorf("Message = %q, want %q", out.Message, "example.com")
	}
}
