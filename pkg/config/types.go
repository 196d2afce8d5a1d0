// Package config loads the jsproc configuration file.
package config

import (
	"time"

	"github.com/gridctl/jsproc/pkg/modname"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "jsproc.yaml"

// EnvOverride names the variable that overrides Config.Env.
const EnvOverride = "JSPROC_ENV"

// Config is the complete jsproc configuration.
type Config struct {
	Env     string        `yaml:"env"`
	AppRoot string        `yaml:"app_root"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`

	// TranspilePaths are extra path prefixes, relative to AppRoot, whose
	// files are always transpiled.
	TranspilePaths []string `yaml:"transpile_paths,omitempty"`

	// PluginManifest is a JSONC file listing plugins; Plugins are added on top.
	PluginManifest string           `yaml:"plugin_manifest,omitempty"`
	Plugins        []modname.Plugin `yaml:"plugins,omitempty"`
}

// EngineConfig controls the embedded engine and the program bundle.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	IdleGC  time.Duration `yaml:"idle_gc"`

	// ArtifactDir holds the bundled transformation program.
	ArtifactDir string `yaml:"artifact_dir"`
	// SourceDir overrides the compiled-in program sources. Used for
	// development together with watch.
	SourceDir string `yaml:"source_dir,omitempty"`

	VersionConstraint string `yaml:"version_constraint,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// Production reports whether the configuration targets production.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.AppRoot == "" {
		c.AppRoot = "."
	}
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = 15 * time.Second
	}
	if c.Engine.IdleGC == 0 {
		c.Engine.IdleGC = 2 * time.Second
	}
	if c.Engine.ArtifactDir == "" {
		c.Engine.ArtifactDir = "tmp"
	}
	if c.Engine.VersionConstraint == "" {
		c.Engine.VersionConstraint = "^1.0"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
