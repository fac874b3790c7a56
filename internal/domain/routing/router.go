// Package routing selects the ordered list of candidate providers for a
// request. Selection is deterministic: a static priority table keyed by
// (task, content type) ranks providers, registration order breaks ties, and
// the local heuristic provider is always appended last as the guaranteed
// fallback.
package routing

import (
	"errors"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
)

// ErrNoProvider means not even the local fallback supports the requested
// content type. That is a configuration error, not a runtime one: the
// orchestrator surfaces it immediately without trying any candidate.
var ErrNoProvider = errors.New("no provider supports the requested content type")

type tableKey struct {
	task    analysis.Task
	content analysis.ContentType
}

// Table ranks provider ids per (task, content type). Entries missing from the
// table fall back to registration order.
type Table map[tableKey][]string

// Entry sets the ranked provider ids for one (task, content type) pair.
func (t Table) Entry(task analysis.Task, ct analysis.ContentType, ids ...string) {
	t[tableKey{task: task, content: ct}] = ids
}

func (t Table) rank(task analysis.Task, ct analysis.ContentType) []string {
	return t[tableKey{task: task, content: ct}]
}

// Router filters and orders providers for the orchestrator.
type Router struct {
	registry *providers.Registry
	table    Table
	localID  string
}

func New(registry *providers.Registry, table Table, localID string) *Router {
	if table == nil {
		table = Table{}
	}
	return &Router{registry: registry, table: table, localID: localID}
}

// Candidates returns provider ids in preference order for single-mode
// fallback. Providers that do not support the content type or task, or that
// report themselves unavailable, are filtered out. A preferred id already in
// the filtered set moves to the front. The local provider always comes last.
func (r *Router) Candidates(ct analysis.ContentType, task analysis.Task, preferred string) ([]string, error) {
	out := make([]string, 0, len(r.registry.IDs()))
	for _, id := range r.baseOrder(task, ct) {
		if id == r.localID {
			continue
		}
		p := r.registry.Get(id)
		if p == nil || !r.eligible(p, ct, task) {
			continue
		}
		if !p.Available() {
			continue
		}
		out = append(out, id)
	}

	if preferred != "" && preferred != r.localID {
		for i, id := range out {
			if id == preferred {
				copy(out[1:i+1], out[:i])
				out[0] = preferred
				break
			}
		}
	}

	if local := r.registry.Get(r.localID); local != nil && r.eligible(local, ct, task) {
		out = append(out, r.localID)
	}

	if len(out) == 0 {
		return nil, ErrNoProvider
	}
	return out, nil
}

// Supporting returns every available provider for the content type and task
// in registration order, local included. Consensus mode invokes all of them.
func (r *Router) Supporting(ct analysis.ContentType, task analysis.Task) ([]string, error) {
	var out []string
	for _, p := range r.registry.All() {
		if !r.eligible(p, ct, task) || !p.Available() {
			continue
		}
		out = append(out, p.Descriptor().ID)
	}
	if len(out) == 0 {
		return nil, ErrNoProvider
	}
	return out, nil
}

// baseOrder merges the priority table entry with the remaining registered ids
// so every provider is considered exactly once.
func (r *Router) baseOrder(task analysis.Task, ct analysis.ContentType) []string {
	ranked := r.table.rank(task, ct)
	seen := make(map[string]bool, len(ranked))
	order := make([]string, 0, len(r.registry.IDs()))
	for _, id := range ranked {
		if !seen[id] && r.registry.Get(id) != nil {
			seen[id] = true
			order = append(order, id)
		}
	}
	for _, id := range r.registry.IDs() {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order
}

func (r *Router) eligible(p providers.Provider, ct analysis.ContentType, task analysis.Task) bool {
	d := p.Descriptor()
	return d.SupportsContent(ct) && d.SupportsTask(task)
}
