// Package modname derives module identifiers for transpiled script assets.
package modname

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/tailscale/hujson"
)

// ManifestFile is the file that marks a plugin directory.
const ManifestFile = "plugin.rb"

// Plugin is a registered plugin. Path is the absolute path of its manifest.
type Plugin struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Registry maps plugin manifest paths to plugins.
type Registry struct {
	mu     sync.RWMutex
	byPath map[string]Plugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]Plugin)}
}

// Register adds or replaces the plugin registered at p.Path.
func (r *Registry) Register(p Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if p.Path == "" {
		return fmt.Errorf("plugin %q: path is required", p.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPath[p.Path] = p
	return nil
}

// FindByPath returns the plugin whose manifest lives at path.
func (r *Registry) FindByPath(path string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byPath[path]
	return p, ok
}

// List returns all plugins sorted by name.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.byPath))
	for _, p := range r.byPath {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type manifest struct {
	Plugins []Plugin `json:"plugins"`
}

// LoadManifest reads a JSONC plugin list ({"plugins": [{"name", "path"}]})
// and registers every entry. Comments and trailing commas are allowed.
func (r *Registry) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading plugin manifest: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parsing plugin manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(std, &m); err != nil {
		return fmt.Errorf("decoding plugin manifest: %w", err)
	}

	for i, p := range m.Plugins {
		if err := r.Register(p); err != nil {
			return fmt.Errorf("plugins[%d]: %w", i, err)
		}
	}
	return nil
}
