package config

import (
	"fmt"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
	"git.home.luguber.info/inful/bundler/internal/transform"
)

// ConfigError reports one invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// OverrideMode replaces the configured mode and re-resolves the policy. Used
// by the CLI --mode flag.
func (c *Config) OverrideMode(raw string) error {
	policy, err := mode.Resolve(raw)
	if err != nil {
		return &ConfigError{Field: "mode", Message: fmt.Sprintf("invalid value %q", raw), Cause: err}
	}
	c.Mode = string(policy.Mode)
	c.policy = policy
	return nil
}

// validate checks the whole config eagerly. The first failure is returned; a
// config that validates is fully usable downstream.
func validate(c *Config) error {
	policy, err := mode.Resolve(c.Mode)
	if err != nil {
		return &ConfigError{Field: "mode", Message: fmt.Sprintf("invalid value %q", c.Mode), Cause: err}
	}
	c.policy = policy

	if len(c.Entries) == 0 {
		return &ConfigError{Field: "entries", Message: "at least one entry point is required"}
	}
	for name, p := range c.Entries {
		if name == "" {
			return &ConfigError{Field: "entries", Message: "entry name must not be empty"}
		}
		switch name {
		case chunk.RuntimeChunkName, chunk.SharedChunkName, chunk.StylesChunkName:
			return &ConfigError{
				Field:   "entries." + name,
				Message: fmt.Sprintf("entry name %q is reserved for a planner chunk", name),
			}
		}
		if p == "" {
			return &ConfigError{Field: "entries." + name, Message: "entry path must not be empty"}
		}
	}

	if err := chunk.Validate(c.SplitRules()); err != nil {
		return &ConfigError{Field: "split", Message: "invalid split rules", Cause: err}
	}

	if _, err := transform.NewChain(c.TransformSpecs(), policy, nil); err != nil {
		return &ConfigError{Field: "transforms", Message: "invalid transform chain", Cause: err}
	}

	for i, a := range c.Assets {
		if a.From == "" {
			return &ConfigError{Field: fmt.Sprintf("assets[%d].from", i), Message: "source path must not be empty"}
		}
	}

	for ext, capability := range c.Loaders {
		if !graph.Capability(capability).IsValid() {
			return &ConfigError{
				Field:   "loaders." + ext,
				Message: fmt.Sprintf("unknown capability %q (expected script, style or asset)", capability),
			}
		}
	}

	return nil
}
