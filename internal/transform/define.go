package transform

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

// defineUnit substitutes compile-time constants in script modules. The mode
// policy supplies the built-in tokens (process.env.NODE_ENV, __DEV__);
// configuration options add literal token -> replacement pairs.
type defineUnit struct {
	replacements []string // flat pairs for strings.NewReplacer
}

func newDefineUnit(policy mode.Policy, options map[string]string) (Unit, error) {
	pairs := make([]string, 0, 2*(len(options)+2))
	for _, token := range []string{"process.env.NODE_ENV", "__DEV__"} {
		if v, ok := policy.DefineValue(token); ok {
			pairs = append(pairs, token, v)
		}
	}
	// Deterministic option order keeps transformed output byte-stable.
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, k, options[k])
	}
	return &defineUnit{replacements: pairs}, nil
}

func (u *defineUnit) Name() string { return "define" }

func (u *defineUnit) Capabilities() []graph.Capability {
	return []graph.Capability{graph.CapabilityScript}
}

func (u *defineUnit) Apply(m *graph.Module) error {
	src := m.Output
	if src == nil {
		src = m.Raw
	}
	m.Output = []byte(strings.NewReplacer(u.replacements...).Replace(string(src)))
	return nil
}
