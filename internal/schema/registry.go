package schema

import "sync"

// Registry holds the known collection definitions keyed by id.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{}
	r.Load(defs)
	return r
}

// Get returns the definition with the given id, or nil.
func (r *Registry) Get(id string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[id]
}

// All returns the definitions in the order they were loaded.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.defs[id])
	}
	return out
}

// Load replaces all definitions in the registry.
func (r *Registry) Load(defs []Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs = make(map[string]*Definition, len(defs))
	r.order = r.order[:0]
	for i := range defs {
		d := defs[i]
		if _, dup := r.defs[d.ID]; !dup {
			r.order = append(r.order, d.ID)
		}
		r.defs[d.ID] = &d
	}
}
