package graph

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bundler/internal/markup"
	"git.home.luguber.info/inful/bundler/internal/mode"
	"git.home.luguber.info/inful/bundler/internal/resolver"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o640))
	}
	return root
}

// countingTransformer counts Transform invocations per module identity.
type countingTransformer struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingTransformer) Transform(m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[m.ID]++
	return nil
}

func devBuilder(t *testing.T, root string, chain Transformer) *Builder {
	t.Helper()
	policy, err := mode.Resolve("development")
	require.NoError(t, err)
	res := resolver.New(root, []string{"node_modules"}, nil)
	return NewBuilder(root, res, chain, markup.NewScanner(), policy, nil, 4)
}

func TestBuildDiscoversTransitiveImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": `import a from "./a.js";` + "\n",
		"src/a.js":     `import b from "./b.js";` + "\n",
		"src/b.js":     "module.exports = 1;\n",
	})

	g, err := devBuilder(t, root, nil).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	idx := g.Module("src/index.js")
	require.NotNil(t, idx)
	require.Len(t, idx.Imports, 1)
	assert.Equal(t, "src/a.js", idx.Imports[0].Target)
	assert.Equal(t, "./a.js", idx.Imports[0].Specifier)
}

func TestBuildDeduplicatesByIdentity(t *testing.T) {
	// The same module reached through two different specifiers is one node
	// and transformed exactly once.
	root := writeTree(t, map[string]string{
		"src/index.js":  `import a from "./a.js";` + "\n" + `import u from "./util/b.js";` + "\n",
		"src/a.js":      `import b from "../src/util/b.js";` + "\n",
		"src/util/b.js": "module.exports = 1;\n",
	})

	ct := &countingTransformer{}
	g, err := devBuilder(t, root, ct).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 1, ct.counts["src/util/b.js"])
}

func TestBuildTransformsEachModuleOnce(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": `import a from "./a.js";` + "\n" + `import b from "./b.js";` + "\n",
		"src/other.js": `import a from "./a.js";` + "\n" + `import b from "./b.js";` + "\n",
		"src/a.js":     "module.exports = 'a';\n",
		"src/b.js":     "module.exports = 'b';\n",
	})

	ct := &countingTransformer{}
	_, err := devBuilder(t, root, ct).Build(context.Background(), []EntryPoint{
		{Name: "index", Root: "src/index.js"},
		{Name: "other", Root: "src/other.js"},
	})
	require.NoError(t, err)

	for id, n := range ct.counts {
		assert.Equal(t, 1, n, id)
	}
	assert.Len(t, ct.counts, 4)
}

func TestBuildImportCycle(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.js": `import b from "./b.js";` + "\n",
		"src/b.js": `import a from "./a.js";` + "\n",
	})

	g, err := devBuilder(t, root, nil).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "src/a.js"}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestBuildVendorResolution(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js":              `import lib from "lib";` + "\n",
		"node_modules/lib/index.js": "module.exports = 'lib';\n",
	})

	g, err := devBuilder(t, root, nil).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.NoError(t, err)
	assert.NotNil(t, g.Module("node_modules/lib/index.js"))
}

func TestBuildResolutionFailureAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": `import a from "./missing.js";` + "\n",
	})

	_, err := devBuilder(t, root, nil).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.Error(t, err)

	var resErr *resolver.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "./missing.js", resErr.Specifier)
	assert.Equal(t, "src/index.js", resErr.From)
}

func TestBuildHTMLEntryDocument(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<!doctype html>
<html><head>
<link rel="stylesheet" href="styles/main.css">
</head><body>
<script src="src/index.js"></script>
</body></html>`,
		"src/index.js":    "console.log('hi');\n",
		"styles/main.css": "body { margin: 0; }\n",
	})

	g, err := devBuilder(t, root, nil).Build(context.Background(),
		[]EntryPoint{{Name: "index", Root: "index.html"}})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	doc := g.Module("index.html")
	require.NotNil(t, doc)
	assert.Equal(t, CapabilityAsset, doc.Capability)
	require.Len(t, doc.Imports, 2)
	assert.Equal(t, "styles/main.css", doc.Imports[0].Target)
	assert.Equal(t, "src/index.js", doc.Imports[1].Target)
}

func TestBuildCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": "console.log(1);\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := devBuilder(t, root, nil).Build(ctx,
		[]EntryPoint{{Name: "index", Root: "src/index.js"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestModuleHashTracksContent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/index.js": "console.log(1);\n",
	})
	entries := []EntryPoint{{Name: "index", Root: "src/index.js"}}

	g1, err := devBuilder(t, root, nil).Build(context.Background(), entries)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "index.js"), []byte("console.log(2);\n"), 0o640))
	g2, err := devBuilder(t, root, nil).Build(context.Background(), entries)
	require.NoError(t, err)

	assert.NotEqual(t, g1.Module("src/index.js").Hash, g2.Module("src/index.js").Hash)
}
