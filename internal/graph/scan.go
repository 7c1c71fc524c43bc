package graph

import (
	"regexp"
	"strings"
)

// Import scanning is deliberately lexical: the transform chain owns syntax
// lowering, so by the time a module is scanned its output is plain script or
// style content with conventional import forms.
var (
	scriptImportRe  = regexp.MustCompile(`(?:^|;)\s*import\s+(?:[\w$*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)
	scriptExportRe  = regexp.MustCompile(`(?:^|;)\s*export\s+[\w$*{}\s,]+\s+from\s+['"]([^'"]+)['"]`)
	scriptRequireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	styleImportRe   = regexp.MustCompile(`@import\s+(?:url\()?['"]([^'"]+)['"]\)?`)
)

// devOnlyPragma marks a conditional import followed only in development mode.
const devOnlyPragma = "// dev-only"

// scannedImport is a declared specifier prior to resolution.
type scannedImport struct {
	specifier string
	devOnly   bool
}

// scanImports extracts declared import specifiers from transformed module
// content, in declaration order. includeDev selects whether dev-only imports
// are kept; excluded branches are dropped before resolution so they never
// enter the graph.
func scanImports(capability Capability, content []byte, includeDev bool) []scannedImport {
	switch capability {
	case CapabilityScript:
		return scanScriptImports(content, includeDev)
	case CapabilityStyle:
		return scanStyleImports(content)
	default:
		return nil
	}
}

func scanScriptImports(content []byte, includeDev bool) []scannedImport {
	var out []scannedImport
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		devOnly := strings.Contains(line, devOnlyPragma)
		if devOnly && !includeDev {
			continue
		}
		for _, re := range []*regexp.Regexp{scriptImportRe, scriptExportRe, scriptRequireRe} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				spec := m[1]
				if seen[spec] {
					continue
				}
				seen[spec] = true
				out = append(out, scannedImport{specifier: spec, devOnly: devOnly})
			}
		}
	}
	return out
}

func scanStyleImports(content []byte) []scannedImport {
	var out []scannedImport
	seen := make(map[string]bool)
	for _, m := range styleImportRe.FindAllStringSubmatch(string(content), -1) {
		spec := m[1]
		if seen[spec] || strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
			continue
		}
		seen[spec] = true
		out = append(out, scannedImport{specifier: spec})
	}
	return out
}
