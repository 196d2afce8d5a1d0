package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestContext(t *testing.T, src string) *Context {
	t.Helper()
	c := newContext(time.Second, time.Hour)
	t.Cleanup(c.Dispose)
	if err := c.Eval("test.js", src); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	return c
}

func TestContext_InvokeReturnsExportedValue(t *testing.T) {
	c := newTestContext(t, `function add(a, b) { return a + b; }`)

	got, err := c.Invoke(context.Background(), "add", 2, 3)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != int64(5) {
		t.Errorf("expected 5, got %v (%T)", got, got)
	}
	if c.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", c.Calls())
	}
}

func TestContext_InvokePassesObjectsAsPlainJS(t *testing.T) {
	c := newTestContext(t, `function describe(o) { return o.name + ":" + o.tags.length + ":" + Array.isArray(o.tags); }`)

	arg := map[string]any{"name": "x", "tags": []string{"a", "b"}}
	got, err := c.Invoke(context.Background(), "describe", arg)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != "x:2:true" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestContext_InvokeUndefinedIsNil(t *testing.T) {
	c := newTestContext(t, `function nothing() {}`)

	got, err := c.Invoke(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestContext_InvokeMissingFunction(t *testing.T) {
	c := newTestContext(t, `var notAFunction = 1;`)

	_, err := c.Invoke(context.Background(), "notAFunction")
	if err == nil || !strings.Contains(err.Error(), "not defined") {
		t.Fatalf("expected not defined error, got %v", err)
	}
}

func TestContext_ThrownErrorBecomesRuntimeError(t *testing.T) {
	c := newTestContext(t, `function fail() { throw new Error("boom"); }`)

	_, err := c.Invoke(context.Background(), "fail")
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if re.Message != "Error: boom" {
		t.Errorf("expected message 'Error: boom', got %q", re.Message)
	}
	if re.Interrupted {
		t.Error("thrown error should not be marked interrupted")
	}
	if !strings.Contains(re.Stack, "fail") {
		t.Errorf("stack should mention the failing function, got %q", re.Stack)
	}
}

func TestContext_Timeout(t *testing.T) {
	c := newContext(50*time.Millisecond, time.Hour)
	defer c.Dispose()
	if err := c.Eval("loop.js", `function spin() { while (true) {} }  function ok() { return "ok"; }`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	start := time.Now()
	_, err := c.Invoke(context.Background(), "spin")
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not interrupt the call")
	}

	var re *RuntimeError
	if !errors.As(err, &re) || !re.Interrupted {
		t.Fatalf("expected interrupted RuntimeError, got %v", err)
	}
	var te TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError cause, got %v", err)
	}
	if !strings.Contains(re.Message, "timed out") {
		t.Errorf("unexpected message %q", re.Message)
	}

	// The interrupt must not leak into the next call.
	got, err := c.Invoke(context.Background(), "ok")
	if err != nil {
		t.Fatalf("call after timeout failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %v", got)
	}
}

func TestContext_Cancellation(t *testing.T) {
	c := newTestContext(t, `function spin() { while (true) {} }`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Invoke(ctx, "spin")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestContext_Disposed(t *testing.T) {
	c := newTestContext(t, `function ok() { return 1; }`)
	c.Dispose()
	c.Dispose()

	if !c.Disposed() {
		t.Fatal("expected context to report disposed")
	}
	if _, err := c.Invoke(context.Background(), "ok"); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
}

func TestContext_IdleCollection(t *testing.T) {
	c := newContext(time.Second, 10*time.Millisecond)
	defer c.Dispose()
	if err := c.Eval("idle.js", `function ok() { return 1; }`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.IdleCollections() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle collection never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
