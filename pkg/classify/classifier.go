package classify

import (
	"regexp"
	"strings"
)

const (
	// JSRoot is the application script root, relative to the app root.
	JSRoot = "app/assets/javascripts"
	// TestRoot is the test script root, relative to the app root.
	TestRoot = "test/javascripts"

	// distMarker identifies output that was already bundled upstream.
	distMarker = "/app/assets/javascripts/discourse/dist/"

	// SkipModuleMarker opts a source out of module wrapping when it appears
	// on a line of its own.
	SkipModuleMarker = "// discourse-skip-module"
)

// bootstrapScripts are top-level scripts that are always transpiled even
// though they sit directly under JSRoot.
var bootstrapScripts = []string{
	"start-discourse",
	"onpopstate-handler",
	"google-tag-manager",
	"google-universal-analytics-v3",
	"google-universal-analytics-v4",
	"activate-account",
	"auto-redirect",
	"embed-application",
	"app-boot",
}

var (
	nestedAppAsset  = regexp.MustCompile(`^` + regexp.QuoteMeta(JSRoot) + `/[^/]+/`)
	nestedTestAsset = regexp.MustCompile(`^` + regexp.QuoteMeta(TestRoot) + `/[^/]+/`)
	skipModuleLine  = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(SkipModuleMarker) + `$`)
)

// Classifier answers whether a file should be transpiled.
type Classifier struct {
	appRoot  string
	registry *Registry
}

// NewClassifier creates a classifier for files below appRoot. A nil registry
// is replaced with an empty one.
func NewClassifier(appRoot string, registry *Registry) *Classifier {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Classifier{appRoot: appRoot, registry: registry}
}

// Registry returns the prefix registry consulted by the classifier.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// IsBundledOutput reports whether filename lives in the pre-built output tree.
func IsBundledOutput(filename string) bool {
	return strings.Contains(filename, distMarker)
}

// ShouldTranspile applies the classification rules in order; the first rule
// that matches decides.
func (c *Classifier) ShouldTranspile(filename string) bool {
	if IsBundledOutput(filename) {
		return false
	}

	if strings.HasSuffix(filename, ".es6") || strings.HasSuffix(filename, ".es6.erb") {
		return true
	}

	if !strings.HasSuffix(filename, ".js") && !strings.HasSuffix(filename, ".js.erb") {
		return false
	}

	rel := c.RelativePath(filename)

	if strings.HasPrefix(rel, JSRoot+"/locales/") || strings.HasPrefix(rel, JSRoot+"/plugins/") {
		return false
	}

	for _, name := range bootstrapScripts {
		if rel == JSRoot+"/"+name+".js" {
			return true
		}
	}

	if c.registry.MatchesAny(rel) {
		return true
	}

	return nestedAppAsset.MatchString(rel) || nestedTestAsset.MatchString(rel)
}

// RelativePath strips the first occurrence of the app root and any leading
// slashes from filename.
func (c *Classifier) RelativePath(filename string) string {
	rel := filename
	if c.appRoot != "" {
		rel = strings.Replace(rel, c.appRoot, "", 1)
	}
	return strings.TrimLeft(rel, "/")
}

// SkipModule reports whether source carries the skip-module marker line.
func SkipModule(source string) bool {
	return source != "" && skipModuleLine.MatchString(source)
}
