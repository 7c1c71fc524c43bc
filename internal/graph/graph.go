package graph

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/bundler/internal/util/sets"
)

// EntryPoint is a named root module supplied by configuration.
type EntryPoint struct {
	Name string
	Root string // resolved module identity
}

// Graph is the completed, immutable module graph. Planning and emission
// operate on it single-threaded after the builder quiesces.
type Graph struct {
	modules map[string]*Module
	entries []EntryPoint
	reach   map[string]sets.Set[string] // module ID -> entry names reaching it
}

// New assembles a graph from an explicit module set, validating edges and
// entry roots. The builder is the normal constructor; New serves tooling and
// tests that already hold the modules.
func New(modules []*Module, entries []EntryPoint) (*Graph, error) {
	byID := make(map[string]*Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}
	return newGraph(byID, entries)
}

// newGraph assembles the final graph from the quiesced module table.
func newGraph(modules map[string]*Module, entries []EntryPoint) (*Graph, error) {
	g := &Graph{modules: modules, entries: entries}
	if err := g.validate(); err != nil {
		return nil, err
	}
	g.computeReachability()
	return g, nil
}

// validate checks the structural invariant: every edge target exists.
func (g *Graph) validate() error {
	for id, m := range g.modules {
		for _, imp := range m.Imports {
			if _, ok := g.modules[imp.Target]; !ok {
				return fmt.Errorf("dangling edge %s -> %s (specifier %q)", id, imp.Target, imp.Specifier)
			}
		}
	}
	for _, e := range g.entries {
		if _, ok := g.modules[e.Root]; !ok {
			return fmt.Errorf("entry %q root module %s missing from graph", e.Name, e.Root)
		}
	}
	return nil
}

// Module returns the module with the given identity, or nil.
func (g *Graph) Module(id string) *Module { return g.modules[id] }

// Len returns the number of modules in the graph.
func (g *Graph) Len() int { return len(g.modules) }

// Entries returns the entry points in configuration order.
func (g *Graph) Entries() []EntryPoint { return g.entries }

// IDs returns all module identities in lexical order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReachedBy returns the entry names that reach the module, sorted.
func (g *Graph) ReachedBy(id string) []string {
	set := g.reach[id]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// computeReachability walks from each entry in order, marking every module
// with the entries that can reach it.
func (g *Graph) computeReachability() {
	g.reach = make(map[string]sets.Set[string], len(g.modules))
	for _, e := range g.entries {
		queue := []string{e.Root}
		visited := sets.New[string]()
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if visited.Has(id) {
				continue
			}
			visited.Add(id)
			if g.reach[id] == nil {
				g.reach[id] = sets.New[string]()
			}
			g.reach[id].Add(e.Name)
			for _, imp := range g.modules[id].Imports {
				queue = append(queue, imp.Target)
			}
		}
	}
}

// TopoOrder returns a topological evaluation order: dependencies before their
// importers. Declaration-level cycles are broken by skipping back edges, which
// matches the late-binding semantics of the module registry at runtime. The
// order is deterministic: entries in configuration order, imports in
// declaration order.
func (g *Graph) TopoOrder() []string {
	var order []string
	visited := sets.New[string]()
	inStack := sets.New[string]()

	var visit func(id string)
	visit = func(id string) {
		if visited.Has(id) || inStack.Has(id) {
			return
		}
		inStack.Add(id)
		for _, imp := range g.modules[id].Imports {
			visit(imp.Target)
		}
		inStack.Delete(id)
		visited.Add(id)
		order = append(order, id)
	}

	for _, e := range g.entries {
		visit(e.Root)
	}
	return order
}
