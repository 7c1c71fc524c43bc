package transform

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

var (
	cssCommentRe    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssWhitespaceRe = regexp.MustCompile(`\s+`)
)

// stylesUnit rewrites a style module into its two halves: CSS output that the
// planner aggregates into style chunks, and a script stub recording the
// module's membership in a style bundle. The stub is what importers see; the
// planner hoists it into the runtime chunk.
type stylesUnit struct {
	minify bool
}

func newStylesUnit(policy mode.Policy, options map[string]string) (Unit, error) {
	minify := policy.Mode == mode.Production
	switch options["minify"] {
	case "":
	case "true":
		minify = true
	case "false":
		minify = false
	default:
		return nil, fmt.Errorf("invalid minify option %q", options["minify"])
	}
	return &stylesUnit{minify: minify}, nil
}

func (u *stylesUnit) Name() string { return "styles" }

func (u *stylesUnit) Capabilities() []graph.Capability {
	return []graph.Capability{graph.CapabilityStyle}
}

func (u *stylesUnit) Apply(m *graph.Module) error {
	css := m.Output
	if css == nil {
		css = m.Raw
	}
	if u.minify {
		out := cssCommentRe.ReplaceAllString(string(css), "")
		out = cssWhitespaceRe.ReplaceAllString(out, " ")
		css = []byte(strings.TrimSpace(out))
	}
	m.Output = css
	m.Stub = []byte(fmt.Sprintf("__bundle.style(%q);\n", m.ID))
	return nil
}
