// Package processor is the public face of the transpiler: transpile,
// compile-template and minify, plus the asset hook that decides whether a
// file is transpiled at all.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/gridctl/jsproc/pkg/artifact"
	"github.com/gridctl/jsproc/pkg/classify"
	"github.com/gridctl/jsproc/pkg/config"
	"github.com/gridctl/jsproc/pkg/engine"
	"github.com/gridctl/jsproc/pkg/gateway"
	"github.com/gridctl/jsproc/pkg/logging"
	"github.com/gridctl/jsproc/pkg/metrics"
	"github.com/gridctl/jsproc/pkg/modname"
	"go.opentelemetry.io/otel/trace"
)

// Engine function names.
const (
	fnTranspile       = "transpile"
	fnCompileTemplate = "compileRawTemplate"
	fnMinify          = "minify"
	fnMinifyResult    = "getMinifyResult"
)

var scriptExt = regexp.MustCompile(`\.(js|es6).*$`)

// Processor wires the classifier, resolver and gateway together.
type Processor struct {
	cfg        *config.Config
	logger     *slog.Logger
	classifier *classify.Classifier
	resolver   *modname.Resolver
	manager    *engine.Manager
	gateway    *gateway.Gateway
}

type settings struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.TracerProvider
	engine  gateway.Engine
}

// Option configures a Processor.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMetrics records engine metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithTracerProvider sets the provider for engine call spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.tracer = tp }
}

// WithEngine replaces the engine manager built from the configuration.
func WithEngine(e gateway.Engine) Option {
	return func(s *settings) { s.engine = e }
}

// New builds a processor from cfg. The engine context itself is created
// lazily on the first engine call.
func New(cfg *config.Config, opts ...Option) (*Processor, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := settings{logger: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.NewDiscardLogger()
	}

	paths := classify.NewRegistry()
	for _, prefix := range cfg.TranspilePaths {
		paths.Register(prefix)
	}

	plugins := modname.NewRegistry()
	if cfg.PluginManifest != "" {
		if err := plugins.LoadManifest(cfg.PluginManifest); err != nil {
			return nil, fmt.Errorf("loading plugin manifest: %w", err)
		}
	}
	for _, p := range cfg.Plugins {
		if err := plugins.Register(p); err != nil {
			return nil, fmt.Errorf("registering plugin %s: %w", p.Name, err)
		}
	}

	p := &Processor{
		cfg:        cfg,
		logger:     logging.WithComponent(s.logger, "processor"),
		classifier: classify.NewClassifier(cfg.AppRoot, paths),
		resolver:   modname.NewResolver(cfg.AppRoot, plugins),
	}

	eng := s.engine
	if eng == nil {
		mopts := engine.Options{
			Production:        cfg.Production(),
			ArtifactPath:      artifact.Path(cfg.Engine.ArtifactDir, cfg.Production()),
			Timeout:           cfg.Engine.Timeout,
			IdleGC:            cfg.Engine.IdleGC,
			VersionConstraint: cfg.Engine.VersionConstraint,
			Logger:            logging.WithComponent(s.logger, "engine"),
			Metrics:           s.metrics,
		}
		if cfg.Engine.SourceDir != "" {
			b := engine.NewEsbuildBuilder(os.DirFS(cfg.Engine.SourceDir))
			b.SetLogger(mopts.Logger)
			mopts.Builder = b
		}
		m, err := engine.NewManager(mopts)
		if err != nil {
			return nil, err
		}
		p.manager = m
		eng = m
	}

	p.gateway = gateway.New(eng,
		gateway.WithLogger(logging.WithComponent(s.logger, "gateway")),
		gateway.WithMetrics(s.metrics),
		gateway.WithTracerProvider(s.tracer),
	)
	return p, nil
}

// Manager returns the engine manager, or nil when WithEngine was used.
func (p *Processor) Manager() *engine.Manager {
	return p.manager
}

// Close disposes the engine context.
func (p *Processor) Close() {
	if p.manager != nil {
		p.manager.Close()
	}
}

// RegisterTranspilePath adds a path prefix whose files are always
// transpiled. There is no way to remove one.
func (p *Processor) RegisterTranspilePath(prefix string) {
	p.classifier.Registry().Register(prefix)
}

// RegisterPlugin makes a plugin known to the module name resolver.
func (p *Processor) RegisterPlugin(plugin modname.Plugin) error {
	return p.resolver.Plugins().Register(plugin)
}

// ShouldTranspile reports whether filename is transpiled.
func (p *Processor) ShouldTranspile(filename string) bool {
	return p.classifier.ShouldTranspile(filename)
}

// ModuleName returns the module identifier for logicalPath under rootPath.
func (p *Processor) ModuleName(rootPath, logicalPath string) string {
	return p.resolver.Resolve(rootPath, logicalPath)
}

// ResetEngine forces a full rebuild of the engine context on the next call.
func (p *Processor) ResetEngine() {
	p.gateway.Reset()
}

// Transpile transforms source into a module named after its path. Sources
// carrying the skip-module marker are lowered but not wrapped.
func (p *Processor) Transpile(ctx context.Context, source, rootPath, logicalPath string, themeID *int) (string, error) {
	filename := logicalPath
	if filename == "" {
		filename = "unknown"
	}

	req, err := NewTranspileRequest(source,
		WithSkipModule(classify.SkipModule(source)),
		WithModuleID(p.resolver.Resolve(rootPath, logicalPath)),
		WithFilename(filename),
		WithThemeID(themeID),
	)
	if err != nil {
		return "", gateway.Translate(err)
	}
	return p.Run(ctx, req)
}

// Run sends a prepared request to the engine.
func (p *Processor) Run(ctx context.Context, req *TranspileRequest) (string, error) {
	out, err := p.gateway.Call(ctx, fnTranspile, req.Source(), req.options())
	if err != nil {
		return "", err
	}
	return asString(fnTranspile, out)
}

// CompileTemplate compiles a raw template to the source of a render
// function.
func (p *Processor) CompileTemplate(ctx context.Context, source string, themeID *int) (string, error) {
	var theme any
	if themeID != nil {
		theme = *themeID
	}
	out, err := p.gateway.Call(ctx, fnCompileTemplate, source, theme)
	if err != nil {
		return "", err
	}
	return asString(fnCompileTemplate, out)
}

// Minify minifies the sources in tree, keyed by file name. The engine
// finishes minification asynchronously, so the result is fetched with a
// second call under the same lock.
func (p *Processor) Minify(ctx context.Context, tree map[string]string, opts map[string]any) (string, error) {
	if opts == nil {
		opts = map[string]any{}
	}
	out, err := p.gateway.CallAndFetch(ctx, fnMinify, fnMinifyResult, tree, opts)
	if err != nil {
		return "", err
	}
	return asString(fnMinify, out)
}

// Asset is one script handed over by the asset pipeline.
type Asset struct {
	LoadPath string
	Filename string
	Data     string
}

// LogicalPath strips the load path and script extensions from filename.
func LogicalPath(loadPath, filename string) string {
	logical := strings.Replace(filename, loadPath, "", 1)
	logical = scriptExt.ReplaceAllString(logical, "")
	return strings.TrimPrefix(logical, "/")
}

// Process transpiles an asset when it is classified for transpilation.
// Outside production, output that was not bundled upstream is wrapped in
// an eval carrying a sourceURL so browsers show the original file name.
func (p *Processor) Process(ctx context.Context, a Asset) (string, error) {
	logical := LogicalPath(a.LoadPath, a.Filename)
	data := a.Data

	if p.ShouldTranspile(a.Filename) {
		out, err := p.Transpile(ctx, data, a.LoadPath, logical, nil)
		if err != nil {
			return "", fmt.Errorf("transpiling %s: %w", a.Filename, err)
		}
		data = out
	}

	if p.cfg.Production() || classify.IsBundledOutput(a.Filename) {
		return data, nil
	}

	quoted, err := quoteJS(data)
	if err != nil {
		return "", err
	}
	url := modname.SourceURL(a.LoadPath, logical)
	return "eval(" + quoted + " + \"\\n//# sourceURL=" + url + "\");\n", nil
}

func quoteJS(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// asString rejects results that are not strings as a transpile failure of
// the call that produced them.
func asString(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", gateway.Translate(fmt.Errorf("engine function %s returned %T, want string", fn, v))
	}
	return s, nil
}
