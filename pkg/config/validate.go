package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors:\n  - " + strings.Join(msgs, "\n  - ")
}

var (
	validEnvs    = []string{EnvDevelopment, EnvTest, EnvProduction}
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks the configuration for errors.
func Validate(c *Config) error {
	var errs ValidationErrors

	if !oneOf(c.Env, validEnvs) {
		errs = append(errs, ValidationError{"env", "must be one of " + strings.Join(validEnvs, ", ")})
	}
	if c.AppRoot == "" {
		errs = append(errs, ValidationError{"app_root", "is required"})
	}

	if c.Engine.Timeout <= 0 {
		errs = append(errs, ValidationError{"engine.timeout", "must be positive"})
	}
	if c.Engine.IdleGC <= 0 {
		errs = append(errs, ValidationError{"engine.idle_gc", "must be positive"})
	}
	if c.Engine.ArtifactDir == "" {
		errs = append(errs, ValidationError{"engine.artifact_dir", "is required"})
	}
	if c.Engine.VersionConstraint != "" {
		if _, err := semver.NewConstraint(c.Engine.VersionConstraint); err != nil {
			errs = append(errs, ValidationError{"engine.version_constraint", err.Error()})
		}
	}

	if !oneOf(strings.ToLower(c.Logging.Level), validLevels) {
		errs = append(errs, ValidationError{"logging.level", "must be one of " + strings.Join(validLevels, ", ")})
	}
	if !oneOf(strings.ToLower(c.Logging.Format), validFormats) {
		errs = append(errs, ValidationError{"logging.format", "must be 'text' or 'json'"})
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{"logging", "rotation limits cannot be negative"})
	}

	for i, p := range c.TranspilePaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("transpile_paths[%d]", i), "cannot be empty"})
		}
	}

	names := make(map[string]bool)
	for i, p := range c.Plugins {
		prefix := fmt.Sprintf("plugins[%d]", i)
		if p.Name == "" {
			errs = append(errs, ValidationError{prefix + ".name", "is required"})
		} else if names[p.Name] {
			errs = append(errs, ValidationError{prefix + ".name", fmt.Sprintf("duplicate plugin name '%s'", p.Name)})
		} else {
			names[p.Name] = true
		}
		if p.Path == "" {
			errs = append(errs, ValidationError{prefix + ".path", "is required"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
