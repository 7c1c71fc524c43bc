// Package resolver maps import specifiers to canonical module identities.
//
// A module identity is a cleaned, slash-separated path relative to the project
// root. Two specifiers that reach the same file always resolve to the same
// identity, which is what the graph builder deduplicates on.
package resolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ResolutionError reports an import specifier that matched no candidate file.
// It aborts the enclosing build: an incomplete graph cannot be emitted.
type ResolutionError struct {
	Specifier string
	From      string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q imported from %q", e.Specifier, e.From)
}

// Resolver resolves specifiers against a project root on the local filesystem.
type Resolver struct {
	root       string
	vendorDirs []string
	exclude    []string
}

// New creates a resolver rooted at the given absolute project directory.
// vendorDirs are root-relative directories searched for bare specifiers, in
// order. exclude patterns remove candidate paths from consideration entirely.
func New(root string, vendorDirs, exclude []string) *Resolver {
	if len(vendorDirs) == 0 {
		vendorDirs = []string{"node_modules"}
	}
	return &Resolver{root: root, vendorDirs: vendorDirs, exclude: exclude}
}

// Root returns the absolute project root the resolver operates under.
func (r *Resolver) Root() string { return r.root }

// Resolve maps specifier, imported from the module identified by fromID, to a
// module identity. Resolution order: exact relative/absolute path, extension
// inference (.js, then /index.js), then vendor-directory search for bare
// specifiers. Candidates matching an exclusion pattern are skipped.
func (r *Resolver) Resolve(specifier, fromID string) (string, error) {
	if specifier == "" {
		return "", &ResolutionError{Specifier: specifier, From: fromID}
	}

	var bases []string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		bases = []string{path.Join(path.Dir(fromID), specifier)}
	case strings.HasPrefix(specifier, "/"):
		bases = []string{path.Clean(strings.TrimPrefix(specifier, "/"))}
	default:
		// Bare specifier: conventional vendor directory search.
		for _, dir := range r.vendorDirs {
			bases = append(bases, path.Join(dir, specifier))
		}
	}

	for _, base := range bases {
		for _, candidate := range []string{base, base + ".js", path.Join(base, "index.js")} {
			if r.excluded(candidate) {
				continue
			}
			if r.isFile(candidate) {
				return candidate, nil
			}
		}
	}

	return "", &ResolutionError{Specifier: specifier, From: fromID}
}

// ResolveEntry resolves an entry root path (as written in configuration) to a
// module identity. Entry paths are interpreted relative to the project root.
func (r *Resolver) ResolveEntry(entryPath string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(filepath.ToSlash(entryPath), "./"))
	return r.Resolve("/"+cleaned, "")
}

func (r *Resolver) isFile(id string) bool {
	if strings.HasPrefix(id, "..") {
		return false // outside the project root
	}
	info, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(id)))
	return err == nil && info.Mode().IsRegular()
}

// excluded reports whether a candidate identity matches any exclusion pattern.
// Patterns are path.Match globs against the full identity; a pattern without
// glob metacharacters also excludes everything under it as a directory prefix.
func (r *Resolver) excluded(id string) bool {
	for _, pattern := range r.exclude {
		if ok, err := path.Match(pattern, id); err == nil && ok {
			return true
		}
		if !strings.ContainsAny(pattern, "*?[") {
			prefix := strings.TrimSuffix(pattern, "/")
			if id == prefix || strings.HasPrefix(id, prefix+"/") {
				return true
			}
		}
	}
	return false
}
