package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads and parses a configuration file, then applies env files,
// environment expansion, defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return finish(&cfg, filepath.Dir(path))
}

// LoadOrDefault loads path when it exists. A missing file yields the
// defaults, resolved against the working directory.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return finish(&Config{}, wd)
}

// LoadEnvFiles loads variables from .env files without overriding ones
// already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

func finish(cfg *Config, basePath string) (*Config, error) {
	expandEnvVars(cfg)

	if env := os.Getenv(EnvOverride); env != "" {
		cfg.Env = env
	}

	cfg.SetDefaults()
	resolveRelativePaths(cfg, basePath)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnvVars expands environment variables in path-like values.
func expandEnvVars(c *Config) {
	c.Env = os.ExpandEnv(c.Env)
	c.AppRoot = os.ExpandEnv(c.AppRoot)
	c.Engine.ArtifactDir = os.ExpandEnv(c.Engine.ArtifactDir)
	c.Engine.SourceDir = os.ExpandEnv(c.Engine.SourceDir)
	c.Logging.File = os.ExpandEnv(c.Logging.File)
	c.PluginManifest = os.ExpandEnv(c.PluginManifest)

	for i := range c.TranspilePaths {
		c.TranspilePaths[i] = os.ExpandEnv(c.TranspilePaths[i])
	}
	for i := range c.Plugins {
		c.Plugins[i].Path = os.ExpandEnv(c.Plugins[i].Path)
	}
}

// resolveRelativePaths resolves file system paths relative to the config
// file location. Artifact and source dirs are relative to the app root.
func resolveRelativePaths(c *Config, basePath string) {
	c.AppRoot = expandTildeAndResolvePath(c.AppRoot, basePath)
	c.Engine.ArtifactDir = expandTildeAndResolvePath(c.Engine.ArtifactDir, c.AppRoot)
	if c.Engine.SourceDir != "" {
		c.Engine.SourceDir = expandTildeAndResolvePath(c.Engine.SourceDir, c.AppRoot)
	}
	if c.PluginManifest != "" {
		c.PluginManifest = expandTildeAndResolvePath(c.PluginManifest, basePath)
	}
	if c.Logging.File != "" {
		c.Logging.File = expandTildeAndResolvePath(c.Logging.File, basePath)
	}
}

// expandTildeAndResolvePath expands ~ to home directory and resolves relative paths.
func expandTildeAndResolvePath(path, basePath string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			if len(path) == 1 {
				path = home
			} else if path[1] == '/' || path[1] == filepath.Separator {
				path = filepath.Join(home, path[2:])
			}
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}

	return filepath.Clean(path)
}
