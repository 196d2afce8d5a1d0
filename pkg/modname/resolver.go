package modname

import (
	"path/filepath"
	"regexp"
	"strings"
)

var pluginAssetRoot = regexp.MustCompile(`/plugins/([\w-]+)/assets`)

// Resolver computes module identifiers. Plugin code is namespaced under
// discourse/plugins/<name>; everything else follows the ember-cli layout
// where app/ and addon/ directories do not appear in the module name.
type Resolver struct {
	plugins      *Registry
	pluginRootRe *regexp.Regexp
}

// NewResolver creates a resolver for an application rooted at appRoot.
// A nil registry means no plugins are known.
func NewResolver(appRoot string, plugins *Registry) *Resolver {
	if plugins == nil {
		plugins = NewRegistry()
	}
	base := filepath.Base(appRoot)
	return &Resolver{
		plugins:      plugins,
		pluginRootRe: regexp.MustCompile(`(.*/` + regexp.QuoteMeta(base) + `/plugins/[^/]+)/`),
	}
}

// Plugins returns the plugin registry used for lookups.
func (r *Resolver) Plugins() *Registry {
	return r.plugins
}

// Resolve returns the module identifier for logicalPath found under rootPath.
// It never fails: when no plugin matches, the rewritten logical path is used.
func (r *Resolver) Resolve(rootPath, logicalPath string) string {
	if m := r.pluginRootRe.FindStringSubmatch(rootPath); m != nil {
		if p, ok := r.plugins.FindByPath(m[1] + "/" + ManifestFile); ok {
			return "discourse/plugins/" + p.Name + "/" + strings.Replace(logicalPath, "javascripts/", "", 1)
		}
	}
	return emberName(logicalPath)
}

// emberName applies the ember-cli directory rewrites, in order.
func emberName(logicalPath string) string {
	name := strings.ReplaceAll(logicalPath, "app/", "")
	name = strings.ReplaceAll(name, "addon/", "")
	return strings.ReplaceAll(name, "admin/addon", "admin")
}

// SourceURL returns the debugging URL for an asset: plugin assets are
// addressed through their public plugin path, core assets by logical path.
func SourceURL(rootPath, logicalPath string) string {
	if m := pluginAssetRoot.FindStringSubmatch(rootPath); m != nil {
		return "plugins/" + m[1] + "/assets/javascripts/" + logicalPath
	}
	return logicalPath
}
