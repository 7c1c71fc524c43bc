package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"git.home.luguber.info/inful/bundler/internal/mode"
)

// ImportResolver maps a specifier plus the importing module to a module
// identity. Implemented by internal/resolver.
type ImportResolver interface {
	Resolve(specifier, fromID string) (string, error)
}

// Transformer applies the capability-routed transform chain to one module.
// Implementations must be pure with respect to other modules so that
// transformation can run on parallel workers.
type Transformer interface {
	Transform(m *Module) error
}

// RefScanner extracts asset references (script sources, stylesheet hrefs)
// from markup content. Implemented by internal/markup.
type RefScanner interface {
	ExtractRefs(content []byte) []string
}

// Builder constructs the module graph by breadth-first traversal from the
// entry points. Resolution and transformation run on a worker pool; the
// module table is the only synchronization point.
type Builder struct {
	root        string
	resolver    ImportResolver
	chain       Transformer
	markup      RefScanner
	policy      mode.Policy
	loaders     map[string]Capability
	concurrency int
}

// NewBuilder creates a graph builder rooted at the project directory.
// concurrency <= 0 selects one worker per CPU.
func NewBuilder(root string, res ImportResolver, chain Transformer, markup RefScanner, policy mode.Policy, loaders map[string]Capability, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Builder{
		root:        root,
		resolver:    res,
		chain:       chain,
		markup:      markup,
		policy:      policy,
		loaders:     loaders,
		concurrency: concurrency,
	}
}

// Concurrency returns the effective worker count.
func (b *Builder) Concurrency() int { return b.concurrency }

type workerResult struct {
	module     *Module
	discovered []string
	err        error
}

// Build traverses from the entry roots and returns the completed graph.
// Every module identity is processed exactly once; revisits contribute edges
// only. The first failure aborts the build.
func (b *Builder) Build(ctx context.Context, entries []EntryPoint) (*Graph, error) {
	table := newModuleTable()
	jobs := make(chan string)
	results := make(chan workerResult)

	for i := 0; i < b.concurrency; i++ {
		go b.worker(jobs, results, table)
	}
	defer close(jobs)

	var queue []string
	for _, e := range entries {
		if table.reserve(e.Root) {
			queue = append(queue, e.Root)
		}
	}

	outstanding := 0
	done := ctx.Done()
	var firstErr error
	for outstanding > 0 || (len(queue) > 0 && firstErr == nil) {
		// Cancellation wins over pending dispatches.
		if firstErr == nil && ctx.Err() != nil {
			firstErr = ctx.Err()
			queue = nil
			done = nil
		}
		var dispatch chan string
		var next string
		if len(queue) > 0 && firstErr == nil {
			dispatch = jobs
			next = queue[0]
		}
		select {
		case dispatch <- next:
			queue = queue[1:]
			outstanding++
		case res := <-results:
			outstanding--
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				continue
			}
			table.set(res.module)
			queue = append(queue, res.discovered...)
		case <-done:
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			queue = nil
			done = nil
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return newGraph(table.snapshot(), entries)
}

func (b *Builder) worker(jobs <-chan string, results chan<- workerResult, table *moduleTable) {
	for id := range jobs {
		m, discovered, err := b.load(id, table)
		results <- workerResult{module: m, discovered: discovered, err: err}
	}
}

// load reads, hashes, transforms and scans one module, resolving its imports
// and reserving any newly discovered identities in the shared table.
func (b *Builder) load(id string, table *moduleTable) (*Module, []string, error) {
	raw, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(id)))
	if err != nil {
		return nil, nil, fmt.Errorf("read module %s: %w", id, err)
	}

	m := &Module{
		ID:         id,
		Hash:       ContentHash(raw),
		Capability: CapabilityForPath(id, b.loaders),
		Raw:        raw,
	}

	if b.chain != nil {
		if err := b.chain.Transform(m); err != nil {
			return nil, nil, err
		}
	}
	if m.Output == nil && m.Capability != CapabilityAsset {
		m.Output = m.Raw
	}

	scanned := b.scan(m)
	var discovered []string
	for _, si := range scanned {
		target, err := b.resolver.Resolve(si.specifier, id)
		if err != nil {
			return nil, nil, err
		}
		m.Imports = append(m.Imports, Import{Specifier: si.specifier, Target: target, DevOnly: si.devOnly})
		if table.reserve(target) {
			discovered = append(discovered, target)
		}
	}
	return m, discovered, nil
}

// scan extracts declared imports from the transformed output. Markup assets
// (HTML entry documents) are scanned for script and stylesheet references;
// other assets declare no imports.
func (b *Builder) scan(m *Module) []scannedImport {
	ext := m.Ext()
	if (ext == ".html" || ext == ".htm") && b.markup != nil {
		var out []scannedImport
		for _, ref := range b.markup.ExtractRefs(m.Raw) {
			out = append(out, scannedImport{specifier: markupRefToSpecifier(ref)})
		}
		return out
	}
	return scanImports(m.Capability, m.Output, b.policy.IncludeDevImports)
}

// markupRefToSpecifier normalizes a markup href/src to an import specifier.
// Document-relative references become relative specifiers so they never fall
// into the vendor-directory search.
func markupRefToSpecifier(ref string) string {
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") || strings.HasPrefix(ref, "/") {
		return ref
	}
	return "./" + ref
}
