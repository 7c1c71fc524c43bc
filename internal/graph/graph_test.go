package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mod(id string, capability Capability, imports ...Import) *Module {
	return &Module{ID: id, Capability: capability, Imports: imports}
}

func imp(target string) Import {
	return Import{Specifier: "./" + target, Target: target}
}

func TestNewGraphValidatesDanglingEdge(t *testing.T) {
	modules := map[string]*Module{
		"src/index.js": mod("src/index.js", CapabilityScript, imp("src/missing.js")),
	}
	_, err := newGraph(modules, []EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling edge")
}

func TestNewGraphValidatesEntryRoot(t *testing.T) {
	modules := map[string]*Module{
		"src/index.js": mod("src/index.js", CapabilityScript),
	}
	_, err := newGraph(modules, []EntryPoint{{Name: "other", Root: "src/other.js"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other")
}

func twoEntryGraph(t *testing.T) *Graph {
	t.Helper()
	modules := map[string]*Module{
		"src/index.js":  mod("src/index.js", CapabilityScript, imp("src/a.js"), imp("src/b.js")),
		"src/other.js":  mod("src/other.js", CapabilityScript, imp("src/b.js"), imp("src/c.js")),
		"src/a.js":      mod("src/a.js", CapabilityScript),
		"src/b.js":      mod("src/b.js", CapabilityScript),
		"src/c.js":      mod("src/c.js", CapabilityScript),
	}
	g, err := newGraph(modules, []EntryPoint{
		{Name: "index", Root: "src/index.js"},
		{Name: "other", Root: "src/other.js"},
	})
	require.NoError(t, err)
	return g
}

func TestReachedBy(t *testing.T) {
	g := twoEntryGraph(t)

	assert.Equal(t, []string{"index"}, g.ReachedBy("src/a.js"))
	assert.Equal(t, []string{"index", "other"}, g.ReachedBy("src/b.js"))
	assert.Equal(t, []string{"other"}, g.ReachedBy("src/c.js"))
}

func TestTopoOrderDepsBeforeImporters(t *testing.T) {
	g := twoEntryGraph(t)

	order := g.TopoOrder()
	require.Len(t, order, 5)
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["src/a.js"], pos["src/index.js"])
	assert.Less(t, pos["src/b.js"], pos["src/index.js"])
	assert.Less(t, pos["src/b.js"], pos["src/other.js"])
	assert.Less(t, pos["src/c.js"], pos["src/other.js"])
}

func TestTopoOrderDeterministic(t *testing.T) {
	first := twoEntryGraph(t).TopoOrder()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, twoEntryGraph(t).TopoOrder())
	}
}

func TestTopoOrderBreaksCycles(t *testing.T) {
	modules := map[string]*Module{
		"src/a.js": mod("src/a.js", CapabilityScript, imp("src/b.js")),
		"src/b.js": mod("src/b.js", CapabilityScript, imp("src/a.js")),
	}
	g, err := newGraph(modules, []EntryPoint{{Name: "index", Root: "src/a.js"}})
	require.NoError(t, err)

	order := g.TopoOrder()
	assert.Equal(t, []string{"src/b.js", "src/a.js"}, order)
}

func TestIDsSorted(t *testing.T) {
	g := twoEntryGraph(t)
	assert.Equal(t, []string{"src/a.js", "src/b.js", "src/c.js", "src/index.js", "src/other.js"}, g.IDs())
}

func TestCapabilityForPath(t *testing.T) {
	assert.Equal(t, CapabilityScript, CapabilityForPath("src/index.js", nil))
	assert.Equal(t, CapabilityScript, CapabilityForPath("src/app.mjs", nil))
	assert.Equal(t, CapabilityStyle, CapabilityForPath("src/app.css", nil))
	assert.Equal(t, CapabilityScript, CapabilityForPath("docs/readme.md", nil))
	assert.Equal(t, CapabilityAsset, CapabilityForPath("img/logo.png", nil))

	loaders := map[string]Capability{".svg": CapabilityScript}
	assert.Equal(t, CapabilityScript, CapabilityForPath("img/icon.svg", loaders))
	assert.Equal(t, CapabilityAsset, CapabilityForPath("img/icon.ico", loaders))
}
