package engine

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gridctl/jsproc/pkg/artifact"
	"github.com/gridctl/jsproc/pkg/logging"
	"github.com/gridctl/jsproc/pkg/metrics"
)

// Options configures a Manager.
type Options struct {
	// Production skips bundling and loads the prebuilt artifact.
	Production bool
	// ArtifactPath is where the bundled program is written and read.
	ArtifactPath string
	// Timeout bounds each call (default 15s).
	Timeout time.Duration
	// IdleGC is the quiet period before freed memory is released (default 2s).
	IdleGC time.Duration
	// VersionConstraint, when set, must be satisfied by the program's
	// processorVersion global.
	VersionConstraint string
	// Builder bundles the program outside production. Defaults to an
	// EsbuildBuilder over ProgramFS.
	Builder Builder
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Manager owns the lifecycle of the single engine context.
type Manager struct {
	opts       Options
	constraint *semver.Constraints
	logger     *slog.Logger

	current atomic.Pointer[Context]
	state   atomic.Int32
	closed  atomic.Bool

	initMu  sync.Mutex
	buildMu sync.Mutex

	builds  atomic.Int64
	bundles atomic.Int64
}

// NewManager validates opts and returns an idle manager. No context is
// built until the first GetOrCreate.
func NewManager(opts Options) (*Manager, error) {
	if opts.ArtifactPath == "" {
		return nil, fmt.Errorf("artifact path is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.IdleGC <= 0 {
		opts.IdleGC = DefaultIdleGC
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	if opts.Builder == nil && !opts.Production {
		b := NewEsbuildBuilder(ProgramFS())
		b.SetLogger(logger)
		opts.Builder = b
	}

	m := &Manager{opts: opts, logger: logger}

	if opts.VersionConstraint != "" {
		c, err := semver.NewConstraint(opts.VersionConstraint)
		if err != nil {
			return nil, fmt.Errorf("invalid processor version constraint: %w", err)
		}
		m.constraint = c
	}

	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Builds returns how many contexts have been constructed.
func (m *Manager) Builds() int64 {
	return m.builds.Load()
}

// Bundles returns how many times the program has been bundled.
func (m *Manager) Bundles() int64 {
	return m.bundles.Load()
}

// Timeout returns the per-call budget given to new contexts.
func (m *Manager) Timeout() time.Duration {
	return m.opts.Timeout
}

// Acquire returns the ready context as an Invoker, building it if needed.
func (m *Manager) Acquire() (Invoker, error) {
	c, err := m.GetOrCreate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetOrCreate returns the ready context, building it on first use or after
// a Reset. Concurrent cold starts build exactly one context.
func (m *Manager) GetOrCreate() (*Context, error) {
	if c := m.current.Load(); c != nil {
		return c, nil
	}

	m.initMu.Lock()
	defer m.initMu.Unlock()

	if c := m.current.Load(); c != nil {
		return c, nil
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.state.Store(int32(StateInitializing))
	start := time.Now()

	c, err := m.create()
	if err != nil {
		m.state.Store(int32(StateUninitialized))
		m.logger.Error("engine context build failed", "error", err)
		return nil, err
	}

	m.current.Store(c)
	m.state.Store(int32(StateReady))
	n := m.builds.Add(1)
	m.opts.Metrics.ContextBuilt()
	m.logger.Info("engine context ready", "build", n, "duration", time.Since(start))

	return c, nil
}

// Reset disposes the current context. The next GetOrCreate rebuilds from
// scratch, including a fresh bundle outside production.
func (m *Manager) Reset() {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	c := m.current.Swap(nil)
	if c == nil {
		return
	}
	c.Dispose()
	if !m.closed.Load() {
		m.state.Store(int32(StateUninitialized))
	}
	m.opts.Metrics.EngineReset()
	m.logger.Info("engine context reset")
}

// Close disposes the context and refuses to build new ones. Outside
// production the bundle written by this manager is removed.
func (m *Manager) Close() {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	m.closed.Store(true)
	if c := m.current.Swap(nil); c != nil {
		c.Dispose()
	}
	m.state.Store(int32(StateDisposed))

	// A bundle this manager produced belongs to this process only.
	if !m.opts.Production && m.bundles.Load() > 0 {
		if err := artifact.Remove(m.opts.ArtifactPath); err != nil {
			m.logger.Warn("removing program bundle failed", "path", m.opts.ArtifactPath, "error", err)
		}
	}
}

func (m *Manager) create() (*Context, error) {
	if !m.opts.Production {
		if err := m.bundle(); err != nil {
			return nil, &InitError{Stage: StageBuild, Err: err}
		}
	}

	c := newContext(m.opts.Timeout, m.opts.IdleGC)

	if err := installShims(c.vm, m.logger); err != nil {
		c.Dispose()
		return nil, &InitError{Stage: StageShims, Err: err}
	}

	src, err := os.ReadFile(m.opts.ArtifactPath)
	if err != nil {
		c.Dispose()
		return nil, &InitError{Stage: StageLoad, Err: err}
	}

	if err := c.Eval(ProgramFilename, string(src)); err != nil {
		c.Dispose()
		return nil, &InitError{Stage: StageEvaluate, Err: err}
	}

	if err := m.checkVersion(c); err != nil {
		c.Dispose()
		return nil, &InitError{Stage: StageVersion, Err: err}
	}

	return c, nil
}

// bundle runs the builder behind its own lock so concurrent cold starts
// never run the bundler at the same time.
func (m *Manager) bundle() error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if m.opts.Builder == nil {
		return fmt.Errorf("no program builder configured")
	}

	start := time.Now()
	if err := m.opts.Builder.Build(m.opts.ArtifactPath); err != nil {
		return err
	}
	m.bundles.Add(1)
	m.opts.Metrics.ProgramBundled()
	m.logger.Debug("program bundled", "path", m.opts.ArtifactPath, "duration", time.Since(start))
	return nil
}

func (m *Manager) checkVersion(c *Context) error {
	if m.constraint == nil {
		return nil
	}

	v := c.vm.Get("processorVersion")
	if v == nil || v.String() == "undefined" {
		return fmt.Errorf("program does not declare processorVersion")
	}

	ver, err := semver.NewVersion(v.String())
	if err != nil {
		return fmt.Errorf("program version %q: %w", v.String(), err)
	}
	if !m.constraint.Check(ver) {
		return fmt.Errorf("program version %s does not satisfy %s", ver, m.opts.VersionConstraint)
	}
	return nil
}
