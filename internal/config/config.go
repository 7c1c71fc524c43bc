// Package config loads, normalizes and validates the bundler configuration
// file. Validation is eager: a config that loads without error is fully usable
// by every downstream component.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/emit"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
	"git.home.luguber.info/inful/bundler/internal/transform"
)

// Config is the parsed bundler configuration.
type Config struct {
	Mode    string            `yaml:"mode"`
	Root    string            `yaml:"root"`
	Output  string            `yaml:"output"`
	Entries map[string]string `yaml:"entries"`

	Resolve    ResolveConfig     `yaml:"resolve,omitempty"`
	Split      []SplitRule       `yaml:"split,omitempty"`
	Transforms []TransformSpec   `yaml:"transforms,omitempty"`
	Assets     []AssetCopy       `yaml:"assets,omitempty"`
	Loaders    map[string]string `yaml:"loaders,omitempty"`
	Build      BuildConfig       `yaml:"build,omitempty"`

	policy mode.Policy
}

// ResolveConfig tunes import resolution.
type ResolveConfig struct {
	// VendorDirs are searched root-upward for bare specifiers.
	VendorDirs []string `yaml:"vendor_dirs,omitempty"`

	// Exclude lists glob patterns or directory prefixes whose files are
	// never pulled into the graph.
	Exclude []string `yaml:"exclude,omitempty"`
}

// SplitRule diverts matching modules into a named chunk. Rules apply in
// declaration order; the first match wins.
type SplitRule struct {
	Target     string `yaml:"target"`
	Path       string `yaml:"path,omitempty"`
	Capability string `yaml:"capability,omitempty"`
}

// TransformSpec enables one transform unit with its options.
type TransformSpec struct {
	Name    string            `yaml:"name"`
	Options map[string]string `yaml:"options,omitempty"`
}

// AssetCopy copies one file verbatim into the output directory.
type AssetCopy struct {
	From string `yaml:"from"`
	To   string `yaml:"to,omitempty"`
}

// BuildConfig tunes build execution.
type BuildConfig struct {
	// Concurrency bounds graph-construction workers. Zero means NumCPU.
	Concurrency int `yaml:"concurrency,omitempty"`

	// HistoryDB is the path of the SQLite build history database. Empty
	// disables history recording.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// Load reads, normalizes and validates a configuration file. Environment
// variables referenced as ${VAR} in the file are expanded; a .env file next to
// the working directory seeds them first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &ConfigError{Field: "file", Message: fmt.Sprintf("cannot read %s", configPath), Cause: err}
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: "invalid YAML", Cause: err}
	}

	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Policy returns the mode policy resolved during validation.
func (c *Config) Policy() mode.Policy { return c.policy }

// EntryPoints returns entries sorted by name so builds see a deterministic
// order regardless of YAML map iteration.
func (c *Config) EntryPoints() []graph.EntryPoint {
	names := make([]string, 0, len(c.Entries))
	for name := range c.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]graph.EntryPoint, 0, len(names))
	for _, name := range names {
		out = append(out, graph.EntryPoint{Name: name, Root: c.Entries[name]})
	}
	return out
}

// SplitRules converts configured rules for the chunk planner, preserving
// declaration order.
func (c *Config) SplitRules() []chunk.Rule {
	out := make([]chunk.Rule, 0, len(c.Split))
	for _, r := range c.Split {
		out = append(out, chunk.Rule{
			Target:     r.Target,
			Path:       r.Path,
			Capability: graph.Capability(r.Capability),
		})
	}
	return out
}

// TransformSpecs converts configured transforms for the chain. An empty list
// selects the default chain.
func (c *Config) TransformSpecs() []transform.Spec {
	if len(c.Transforms) == 0 {
		return transform.DefaultSpecs()
	}
	out := make([]transform.Spec, 0, len(c.Transforms))
	for _, t := range c.Transforms {
		out = append(out, transform.Spec{Name: t.Name, Options: t.Options})
	}
	return out
}

// StaticAssets converts configured verbatim copies for the emitter.
func (c *Config) StaticAssets() []emit.StaticAsset {
	out := make([]emit.StaticAsset, 0, len(c.Assets))
	for _, a := range c.Assets {
		out = append(out, emit.StaticAsset{From: a.From, To: a.To})
	}
	return out
}

// LoaderOverrides maps file extensions to capabilities, overriding the
// defaults derived from extension.
func (c *Config) LoaderOverrides() map[string]graph.Capability {
	if len(c.Loaders) == 0 {
		return nil
	}
	out := make(map[string]graph.Capability, len(c.Loaders))
	for ext, capability := range c.Loaders {
		out[ext] = graph.Capability(capability)
	}
	return out
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Mode:   "development",
		Root:   ".",
		Output: "dist",
		Entries: map[string]string{
			"index": "src/index.js",
		},
		Resolve: ResolveConfig{
			VendorDirs: []string{"node_modules"},
			Exclude:    []string{"**/*.test.js"},
		},
		Split: []SplitRule{
			{Target: "vendors", Path: "node_modules/"},
		},
		Assets: []AssetCopy{
			{From: "public/index.html", To: "index.html"},
		},
		Build: BuildConfig{
			HistoryDB: ".bundler/history.db",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
