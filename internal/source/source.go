package source

import (
	"context"
	"sync"

	"dealscout/internal/domain"
)

// Adapter fetches raw candidate postings from one external source.
// Fetch returns a bounded batch; failures are reported via the error and
// never mixed with partial results.
type Adapter interface {
	// Name labels the adapter in logs and summaries, e.g. "telegram/dealschannel".
	Name() string
	// Key identifies the adapter inside the registry; registering the same
	// key twice is a no-op.
	Key() string
	Type() domain.SourceType
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

// Registry keeps the set of live adapters. Sources can be registered at
// runtime (admin add-channel / add-rss), so access is mutex-guarded.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	order    []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds an adapter. Returns false when an adapter with the same
// key already exists; the existing one is kept.
func (r *Registry) Register(a Adapter) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[a.Key()]; ok {
		return false
	}
	r.adapters[a.Key()] = a
	r.order = append(r.order, a.Key())
	return true
}

// Snapshot returns the adapters in registration order. The returned slice
// is safe to iterate while new sources are being registered.
func (r *Registry) Snapshot() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Adapter, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.adapters[key])
	}
	return out
}

// CountByType reports how many adapters of each source type are registered.
func (r *Registry) CountByType() map[domain.SourceType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[domain.SourceType]int{}
	for _, a := range r.adapters {
		counts[a.Type()]++
	}
	return counts
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
