package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testRoot = "/srv/discourse"

func TestShouldTranspile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected bool
	}{
		{"bundled output js", testRoot + "/app/assets/javascripts/discourse/dist/assets/app.js", false},
		{"bundled output es6", testRoot + "/app/assets/javascripts/discourse/dist/vendor.es6", false},
		{"legacy extension", testRoot + "/lib/anything.es6", true},
		{"legacy extension with erb", testRoot + "/vendor/thing.es6.erb", true},
		{"legacy extension outside root", "/elsewhere/x.es6", true},
		{"non script", testRoot + "/app/assets/javascripts/discourse/app/app.css", false},
		{"non script hbs", testRoot + "/app/assets/javascripts/discourse/app/templates/a.hbs", false},
		{"locale subtree", testRoot + "/app/assets/javascripts/locales/en.js", false},
		{"locale subtree nested", testRoot + "/app/assets/javascripts/locales/i18n/de.js.erb", false},
		{"plugin asset subtree", testRoot + "/app/assets/javascripts/plugins/foo/bar.js", false},
		{"bootstrap script", testRoot + "/app/assets/javascripts/start-discourse.js", true},
		{"bootstrap script app-boot", testRoot + "/app/assets/javascripts/app-boot.js", true},
		{"bootstrap name with erb is not exact", testRoot + "/app/assets/javascripts/app-boot.js.erb", false},
		{"top level app script", testRoot + "/app/assets/javascripts/vendor.js", false},
		{"nested app script", testRoot + "/app/assets/javascripts/discourse/app/app.js", true},
		{"nested app script erb", testRoot + "/app/assets/javascripts/admin/addon/x.js.erb", true},
		{"nested test script", testRoot + "/test/javascripts/helpers/qunit.js", true},
		{"top level test script", testRoot + "/test/javascripts/test_helper.js", false},
		{"unrelated js", testRoot + "/public/javascripts/x/y.js", false},
	}

	c := NewClassifier(testRoot, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.ShouldTranspile(tt.filename), tt.filename)
		})
	}
}

func TestShouldTranspile_BundledOutputWinsOverExtension(t *testing.T) {
	c := NewClassifier(testRoot, nil)
	c.Registry().Register("app/assets/javascripts/discourse/dist/")
	for _, ext := range []string{".js", ".js.erb", ".es6", ".es6.erb", ".ts", ""} {
		path := testRoot + "/app/assets/javascripts/discourse/dist/chunk" + ext
		assert.False(t, c.ShouldTranspile(path), path)
	}
}

func TestShouldTranspile_RegisteredPrefix(t *testing.T) {
	reg := NewRegistry()
	c := NewClassifier(testRoot, reg)

	path := testRoot + "/plugins/chat/assets/javascripts/chat.js"
	assert.False(t, c.ShouldTranspile(path))

	reg.Register("plugins/chat/")
	assert.True(t, c.ShouldTranspile(path))

	// Registering again does not change the answer.
	reg.Register("plugins/chat/")
	assert.True(t, c.ShouldTranspile(path))
	assert.Equal(t, 1, reg.Len())
}

func TestShouldTranspile_RegisteredPrefixCannotOverrideExclusions(t *testing.T) {
	reg := NewRegistry()
	reg.Register("app/assets/javascripts/locales/")
	c := NewClassifier(testRoot, reg)
	assert.False(t, c.ShouldTranspile(testRoot+"/app/assets/javascripts/locales/fr.js"))
}

func TestRegistry_OverlappingPrefixes(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a/")
	reg.Register("a/b/")
	reg.Register("")

	assert.Equal(t, []string{"a/", "a/b/"}, reg.Snapshot())
	assert.True(t, reg.MatchesAny("a/b/c.js"))
	assert.True(t, reg.MatchesAny("a/x.js"))
	assert.False(t, reg.MatchesAny("b/a/x.js"))
}

func TestRelativePath(t *testing.T) {
	c := NewClassifier(testRoot, nil)
	assert.Equal(t, "app/x.js", c.RelativePath(testRoot+"/app/x.js"))
	assert.Equal(t, "app/x.js", c.RelativePath("///app/x.js"))

	bare := NewClassifier("", nil)
	assert.Equal(t, "srv/x.js", bare.RelativePath("/srv/x.js"))
}

func TestSkipModule(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected bool
	}{
		{"empty", "", false},
		{"first line", "// discourse-skip-module\nwindow.x = 1;", true},
		{"later line", "'use strict';\n// discourse-skip-module\n", true},
		{"trailing text", "// discourse-skip-module please\n", false},
		{"indented", "  // discourse-skip-module\n", false},
		{"absent", "export default 1;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SkipModule(tt.source))
		})
	}
}
