package processor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PluginDescriptor names one syntax-lowering plugin, with optional options.
type PluginDescriptor struct {
	Name    string
	Options map[string]any
}

// MarshalJSON encodes a descriptor without options as its bare name and
// one with options as {"name": ..., "options": ...}.
func (p PluginDescriptor) MarshalJSON() ([]byte, error) {
	if len(p.Options) == 0 {
		return json.Marshal(p.Name)
	}
	return json.Marshal(struct {
		Name    string         `json:"name"`
		Options map[string]any `json:"options"`
	}{p.Name, p.Options})
}

// DefaultPlugins is the lowering pipeline applied to every transpiled source.
var DefaultPlugins = []PluginDescriptor{
	{Name: "proposal-decorators", Options: map[string]any{"legacy": true}},
	{Name: "proposal-class-properties"},
	{Name: "proposal-private-methods"},
	{Name: "proposal-class-static-block"},
	{Name: "transform-parameters"},
	{Name: "proposal-export-namespace-from"},
}

// TranspileRequest is one validated transpile call. Build it with
// NewTranspileRequest.
type TranspileRequest struct {
	source     string
	skipModule bool
	moduleID   string
	filename   string
	themeID    *int
	plugins    []PluginDescriptor
}

// RequestOption sets an optional TranspileRequest field.
type RequestOption func(*TranspileRequest)

// WithSkipModule disables module wrapping.
func WithSkipModule(skip bool) RequestOption {
	return func(r *TranspileRequest) { r.skipModule = skip }
}

// WithModuleID sets the module identifier. Without one the module is
// wrapped as an anonymous definition.
func WithModuleID(id string) RequestOption {
	return func(r *TranspileRequest) { r.moduleID = id }
}

// WithFilename sets the source file name used in diagnostics.
func WithFilename(name string) RequestOption {
	return func(r *TranspileRequest) { r.filename = name }
}

// WithThemeID marks the source as belonging to a theme.
func WithThemeID(id *int) RequestOption {
	return func(r *TranspileRequest) {
		if id != nil {
			v := *id
			r.themeID = &v
		}
	}
}

// WithPlugins replaces the plugin list.
func WithPlugins(plugins []PluginDescriptor) RequestOption {
	return func(r *TranspileRequest) {
		r.plugins = append([]PluginDescriptor(nil), plugins...)
	}
}

// NewTranspileRequest validates and builds a request. The filename
// defaults to "unknown" and the plugin list to DefaultPlugins.
func NewTranspileRequest(source string, opts ...RequestOption) (*TranspileRequest, error) {
	r := &TranspileRequest{
		source:   source,
		filename: "unknown",
		plugins:  append([]PluginDescriptor(nil), DefaultPlugins...),
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	if r.filename == "" {
		errs = append(errs, errors.New("filename cannot be empty"))
	}
	if r.themeID != nil && *r.themeID < 0 {
		errs = append(errs, fmt.Errorf("theme id %d is negative", *r.themeID))
	}
	for i, p := range r.plugins {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("plugins[%d]: name is required", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid transpile request: %w", err)
	}
	return r, nil
}

// Source returns the source text.
func (r *TranspileRequest) Source() string { return r.source }

// SkipModule reports whether module wrapping is disabled.
func (r *TranspileRequest) SkipModule() bool { return r.skipModule }

// ModuleID returns the module identifier.
func (r *TranspileRequest) ModuleID() string { return r.moduleID }

// Filename returns the diagnostic file name.
func (r *TranspileRequest) Filename() string { return r.filename }

// ThemeID returns the theme id, or nil.
func (r *TranspileRequest) ThemeID() *int {
	if r.themeID == nil {
		return nil
	}
	v := *r.themeID
	return &v
}

// Plugins returns a copy of the plugin list.
func (r *TranspileRequest) Plugins() []PluginDescriptor {
	return append([]PluginDescriptor(nil), r.plugins...)
}

// options is the object handed to the engine's transpile function.
func (r *TranspileRequest) options() map[string]any {
	var theme, moduleID any
	if r.themeID != nil {
		theme = *r.themeID
	}
	if r.moduleID != "" {
		moduleID = r.moduleID
	}
	return map[string]any{
		"skipModule":    r.skipModule,
		"moduleId":      moduleID,
		"filename":      r.filename,
		"themeId":       theme,
		"commonPlugins": r.plugins,
	}
}
