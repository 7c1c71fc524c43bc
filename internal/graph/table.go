package graph

import "sync"

// moduleTable is the insert-if-absent module arena shared by concurrent
// workers. It is the sole mutable shared structure during graph construction;
// all access goes through one mutex.
type moduleTable struct {
	mu      sync.Mutex
	modules map[string]*Module
}

func newModuleTable() *moduleTable {
	return &moduleTable{modules: make(map[string]*Module)}
}

// reserve claims an identity. It returns true when the identity was absent,
// meaning the caller is responsible for loading and transforming the module.
// Subsequent reserves of the same identity return false and only contribute
// edges, never re-transformation.
func (t *moduleTable) reserve(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.modules[id]; ok {
		return false
	}
	t.modules[id] = nil // claimed, not yet populated
	return true
}

// set fills in a previously reserved identity.
func (t *moduleTable) set(m *Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modules[m.ID] = m
}

// snapshot copies the populated table. Called only after all workers quiesce.
func (t *moduleTable) snapshot() map[string]*Module {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]*Module, len(t.modules))
	for id, m := range t.modules {
		if m != nil {
			out[id] = m
		}
	}
	return out
}
