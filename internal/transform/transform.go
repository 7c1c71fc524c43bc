// Package transform implements the capability-routed transform chain.
//
// Units are registered once at startup from the ordered configuration list and
// applied in registration order to every module whose capability they serve.
// Units are pure per module: no shared mutable state, so modules can be
// transformed concurrently and in any order.
package transform

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/metrics"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

// TransformError reports a module whose content could not be transformed.
// It is fatal for the whole build: partial bundles are never emitted.
type TransformError struct {
	ModuleID string
	Unit     string
	Cause    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s failed for module %s: %v", e.Unit, e.ModuleID, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// Unit is one transform in the chain. A unit declares the capabilities it
// serves; Apply is only invoked for modules carrying one of them.
type Unit interface {
	Name() string
	Capabilities() []graph.Capability
	Apply(m *graph.Module) error
}

// Spec selects and configures a unit from the ordered configuration list.
type Spec struct {
	Name    string
	Options map[string]string
}

// factory constructs a configured unit instance.
type factory func(policy mode.Policy, options map[string]string) (Unit, error)

// builtins is the dispatch table of known units, built once. Registration is
// static: there is no runtime extension point.
var builtins = map[string]factory{
	"markdown": newMarkdownUnit,
	"define":   newDefineUnit,
	"styles":   newStylesUnit,
}

// DefaultSpecs is the chain used when configuration declares no transforms.
// Markdown lowering must precede define substitution so generated script
// output passes through the same token pass as authored scripts.
func DefaultSpecs() []Spec {
	return []Spec{{Name: "markdown"}, {Name: "define"}, {Name: "styles"}}
}

// Chain applies the configured units in order. Implements graph.Transformer.
type Chain struct {
	units    []Unit
	recorder metrics.Recorder
}

// NewChain builds the chain from ordered specs. An unknown unit name is a
// configuration failure surfaced before any graph work.
func NewChain(specs []Spec, policy mode.Policy, recorder metrics.Recorder) (*Chain, error) {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	c := &Chain{recorder: recorder}
	for _, spec := range specs {
		create, ok := builtins[spec.Name]
		if !ok {
			return nil, fmt.Errorf("unknown transform unit %q", spec.Name)
		}
		unit, err := create(policy, spec.Options)
		if err != nil {
			return nil, fmt.Errorf("configure transform unit %q: %w", spec.Name, err)
		}
		c.units = append(c.units, unit)
	}
	return c, nil
}

// Units returns the registered unit names in application order.
func (c *Chain) Units() []string {
	names := make([]string, len(c.units))
	for i, u := range c.units {
		names[i] = u.Name()
	}
	return names
}

// Transform runs every capability-matching unit against the module, in
// registration order.
func (c *Chain) Transform(m *graph.Module) error {
	for _, unit := range c.units {
		if !serves(unit, m.Capability) {
			continue
		}
		t0 := time.Now()
		err := unit.Apply(m)
		c.recorder.ObserveTransformDuration(unit.Name(), time.Since(t0), err == nil)
		if err != nil {
			return &TransformError{ModuleID: m.ID, Unit: unit.Name(), Cause: err}
		}
	}
	return nil
}

func serves(u Unit, c graph.Capability) bool {
	for _, served := range u.Capabilities() {
		if served == c {
			return true
		}
	}
	return false
}
