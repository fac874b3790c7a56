package providers

import "fmt"

// Registry maps provider ids to adapter instances. Registration order is
// preserved and acts as the deterministic tie-break everywhere candidates are
// enumerated. Adding a backend means registering a new adapter here, not
// branching on provider names.
type Registry struct {
	order []string
	byID  map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Provider)}
}

// Register adds a provider under its descriptor id. Duplicate ids are a
// programming error and rejected.
func (r *Registry) Register(p Provider) error {
	id := p.Descriptor().ID
	if id == "" {
		return fmt.Errorf("provider has empty id")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("provider %q already registered", id)
	}
	r.byID[id] = p
	r.order = append(r.order, id)
	return nil
}

// Get returns the provider for id, or nil when unknown.
func (r *Registry) Get(id string) Provider {
	return r.byID[id]
}

// All returns providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns registered ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
