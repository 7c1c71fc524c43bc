package chunk

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/bundler/internal/graph"
)

// Rule assigns matching modules to a named target chunk. Rules are evaluated
// in declaration order; the first match wins. A rule with both predicates set
// requires both to hold.
type Rule struct {
	// Target is the chunk the matching module is assigned to.
	Target string

	// Path matches the module identity: a path.Match glob, or (without
	// glob metacharacters) a directory prefix.
	Path string

	// Capability, when set, restricts the rule to modules of that kind.
	Capability graph.Capability
}

func (r Rule) matches(m *graph.Module) bool {
	if r.Path == "" && r.Capability == "" {
		return false
	}
	if r.Path != "" && !pathMatches(r.Path, m.ID) {
		return false
	}
	if r.Capability != "" && r.Capability != m.Capability {
		return false
	}
	return true
}

func pathMatches(pattern, id string) bool {
	if ok, err := path.Match(pattern, id); err == nil && ok {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		prefix := strings.TrimSuffix(pattern, "/")
		return id == prefix || strings.HasPrefix(id, prefix+"/")
	}
	return false
}

// Validate rejects rules that are unusable before any planning work.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if r.Target == "" {
			return fmt.Errorf("split rule %d: empty target chunk name", i)
		}
		if r.Target == RuntimeChunkName {
			return fmt.Errorf("split rule %d: target %q is reserved for the runtime chunk", i, r.Target)
		}
		if r.Path == "" && r.Capability == "" {
			return fmt.Errorf("split rule %d (target %q): rule needs a path or capability predicate", i, r.Target)
		}
		if r.Capability != "" && !r.Capability.IsValid() {
			return fmt.Errorf("split rule %d (target %q): unknown capability %q", i, r.Target, r.Capability)
		}
	}
	return nil
}

// Plan partitions the graph into chunks.
//
// Phase 1 designates the runtime chunk: module-loading bootstrap shared by all
// entry points, plus hoisted style stubs.
//
// Phase 2 assigns every module by the first matching split rule; unmatched
// style modules aggregate into the styles chunk, unmatched modules reachable
// from two or more entries go to the shared chunk, and the rest go to their
// entry's chunk. An explicit rule match always takes priority over
// shared-dependency extraction.
func Plan(g *graph.Graph, rules []Rule) ([]*Chunk, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}

	runtime := &Chunk{Name: RuntimeChunkName, Kind: KindRuntime}
	chunks := []*Chunk{runtime}
	byName := map[string]*Chunk{RuntimeChunkName: runtime}

	ensure := func(name string) *Chunk {
		if c, ok := byName[name]; ok {
			return c
		}
		c := &Chunk{Name: name}
		byName[name] = c
		chunks = append(chunks, c)
		return c
	}

	assigned := make(map[string]*Chunk, g.Len())
	for _, id := range g.TopoOrder() {
		m := g.Module(id)
		c := ensure(targetFor(g, m, rules))
		c.Modules = append(c.Modules, m)
		assigned[id] = c
	}

	// Chunk kinds: a chunk is style-typed only when every member is a
	// style module; mixed membership (e.g. a vendor rule capturing both)
	// serializes as script with inlined style injection.
	for _, c := range chunks[1:] {
		c.Kind = KindScript
		allStyle := true
		for _, m := range c.Modules {
			if m.Capability != graph.CapabilityStyle {
				allStyle = false
				break
			}
		}
		if allStyle && len(c.Modules) > 0 {
			c.Kind = KindStyle
		}
	}

	// Hoist stubs of style-chunk members into the runtime chunk.
	for _, c := range chunks[1:] {
		if c.Kind != KindStyle {
			continue
		}
		for _, m := range c.Modules {
			if len(m.Stub) > 0 {
				runtime.Hoisted = append(runtime.Hoisted, m)
			}
		}
	}

	// Entry roots mark where the emitter appends the boot require call.
	for _, e := range g.Entries() {
		c := assigned[e.Root]
		c.EntryModules = append(c.EntryModules, e.Root)
	}

	computeRequires(g, chunks, assigned)
	return chunks, nil
}

// targetFor picks the chunk name for one module. First matching rule wins,
// ties broken by declaration order; defaults apply only when no rule matches.
func targetFor(g *graph.Graph, m *graph.Module, rules []Rule) string {
	for _, r := range rules {
		if r.matches(m) {
			return r.Target
		}
	}
	if m.Capability == graph.CapabilityStyle {
		return StylesChunkName
	}
	reached := g.ReachedBy(m.ID)
	if len(reached) >= 2 {
		return SharedChunkName
	}
	if len(reached) == 1 {
		return reached[0]
	}
	// Unreachable modules cannot occur: discovery starts at entries.
	return SharedChunkName
}

// computeRequires derives the load-before relation: a chunk requires every
// chunk that owns a module its members import, and all chunks require the
// runtime chunk.
func computeRequires(g *graph.Graph, chunks []*Chunk, assigned map[string]*Chunk) {
	for _, c := range chunks {
		if c.Name == RuntimeChunkName {
			continue
		}
		deps := make(map[string]bool)
		for _, m := range c.Modules {
			for _, imp := range m.Imports {
				if dep := assigned[imp.Target]; dep != nil && dep.Name != c.Name {
					deps[dep.Name] = true
				}
			}
		}
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)
		c.Requires = append([]string{RuntimeChunkName}, names...)
	}
}
