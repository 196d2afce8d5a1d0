package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

const (
	// DefaultTimeout bounds every call into a context.
	DefaultTimeout = 15 * time.Second
	// DefaultIdleGC is the quiet period after which freed heap is returned
	// to the operating system.
	DefaultIdleGC = 2 * time.Second
)

// Invoker calls a global function of the loaded program.
type Invoker interface {
	Invoke(ctx context.Context, name string, args ...any) (any, error)
}

// Context is one goja runtime with the transformation program loaded.
// It is not safe for concurrent use.
type Context struct {
	vm        *goja.Runtime
	timeout   time.Duration
	idleGC    time.Duration
	parseJSON goja.Callable

	mu        sync.Mutex
	idleTimer *time.Timer
	disposed  bool

	calls           atomic.Int64
	idleCollections atomic.Int64
}

func newContext(timeout, idleGC time.Duration) *Context {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if idleGC <= 0 {
		idleGC = DefaultIdleGC
	}

	vm := goja.New()
	parse, _ := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))

	return &Context{
		vm:        vm,
		timeout:   timeout,
		idleGC:    idleGC,
		parseJSON: parse,
	}
}

// Timeout returns the per-call execution budget.
func (c *Context) Timeout() time.Duration {
	return c.timeout
}

// Calls returns the number of invocations made on this context.
func (c *Context) Calls() int64 {
	return c.calls.Load()
}

// IdleCollections returns how many idle collections have run.
func (c *Context) IdleCollections() int64 {
	return c.idleCollections.Load()
}

// Eval runs src as a script named filename.
func (c *Context) Eval(filename, src string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.armIdle()

	return c.run(context.Background(), func() error {
		_, err := c.vm.RunScript(filename, src)
		return err
	})
}

// Invoke calls the global function name with args. Strings are passed as
// JS strings, anything else is converted through its JSON encoding so the
// program always sees plain objects and arrays. The result is exported to
// a Go value; undefined and null become nil.
func (c *Context) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.armIdle()
	c.calls.Add(1)

	fn, ok := goja.AssertFunction(c.vm.Get(name))
	if !ok {
		return nil, fmt.Errorf("engine function %q is not defined", name)
	}

	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		v, err := c.toValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, name, err)
		}
		jsArgs[i] = v
	}

	var ret goja.Value
	err := c.run(ctx, func() error {
		var callErr error
		ret, callErr = fn(goja.Undefined(), jsArgs...)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if ret == nil || goja.IsUndefined(ret) || goja.IsNull(ret) {
		return nil, nil
	}
	return ret.Export(), nil
}

// Dispose releases the runtime. Later calls fail with ErrDisposed.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.vm.Interrupt(ErrDisposed)
}

// Disposed reports whether Dispose has been called.
func (c *Context) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Context) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	return nil
}

func (c *Context) armIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.idleTimer == nil {
		c.idleTimer = time.AfterFunc(c.idleGC, c.collectIdle)
		return
	}
	c.idleTimer.Reset(c.idleGC)
}

func (c *Context) collectIdle() {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed {
		return
	}
	c.idleCollections.Add(1)
	debug.FreeOSMemory()
}

// run executes f with the timeout and ctx wired to vm.Interrupt. The
// interrupt flag is always cleared before returning so a late timer cannot
// poison the next call.
func (c *Context) run(ctx context.Context, f func() error) error {
	var (
		mu   sync.Mutex
		done bool
	)
	interrupt := func(reason any) {
		mu.Lock()
		defer mu.Unlock()
		if !done {
			c.vm.Interrupt(reason)
		}
	}

	timer := time.AfterFunc(c.timeout, func() { interrupt(TimeoutError{Timeout: c.timeout}) })
	stop := context.AfterFunc(ctx, func() { interrupt(ctx.Err()) })

	err := f()

	mu.Lock()
	done = true
	mu.Unlock()
	timer.Stop()
	stop()
	c.vm.ClearInterrupt()

	return toRuntimeError(err)
}

func (c *Context) toValue(arg any) (goja.Value, error) {
	switch v := arg.(type) {
	case nil:
		return goja.Null(), nil
	case string:
		return c.vm.ToValue(v), nil
	case bool, int, int64, float64:
		return c.vm.ToValue(v), nil
	}

	data, err := json.Marshal(arg)
	if err != nil {
		return nil, err
	}
	return c.parseJSON(goja.Undefined(), c.vm.ToValue(string(data)))
}

// toRuntimeError maps goja failures to *RuntimeError. Other errors pass
// through unchanged.
func toRuntimeError(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		re := &RuntimeError{
			Message:     fmt.Sprint(interrupted.Value()),
			Stack:       interrupted.String(),
			Interrupted: true,
			cause:       err,
		}
		if reason, ok := interrupted.Value().(error); ok {
			re.Message = reason.Error()
			re.cause = reason
		}
		return re
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		msg := "undefined"
		if v := ex.Value(); v != nil {
			msg = v.String()
		}
		return &RuntimeError{Message: msg, Stack: ex.String(), cause: err}
	}

	return err
}
