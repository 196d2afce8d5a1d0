// Package classify decides which script assets go through the transpiler.
package classify

import (
	"sort"
	"sync"
)

// Registry is the process-wide set of transpile path prefixes contributed by
// plugins. It only grows: there is no way to remove a prefix once registered.
type Registry struct {
	mu       sync.RWMutex
	prefixes map[string]struct{}
}

// NewRegistry creates an empty prefix registry.
func NewRegistry() *Registry {
	return &Registry{prefixes: make(map[string]struct{})}
}

// Register adds a prefix. Registering the same prefix again is a no-op, and
// empty prefixes are ignored since they would match every path.
func (r *Registry) Register(prefix string) {
	if prefix == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = struct{}{}
}

// Len returns the number of distinct registered prefixes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prefixes)
}

// Snapshot returns the registered prefixes in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.prefixes))
	for p := range r.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MatchesAny reports whether path starts with any registered prefix.
func (r *Registry) MatchesAny(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for p := range r.prefixes {
		if len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}
