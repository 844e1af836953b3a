package providers

import (
	"fmt"
	"sync"

	"github.com/dropDatabas3/linkjohn/internal/domain"
)

// Factory creates a new verifier instance.
type Factory func(cfg Config) (Verifier, error)

// Registry manages verifier factories and instances per provider kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[domain.ProviderKind]Factory
	cache     map[domain.ProviderKind]Verifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[domain.ProviderKind]Factory),
		cache:     make(map[domain.ProviderKind]Verifier),
	}
}

// RegisterFactory registers a factory for a provider kind.
// Called at startup for each supported provider.
func (r *Registry) RegisterFactory(kind domain.ProviderKind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Get returns the verifier for kind, creating it on first use.
func (r *Registry) Get(kind domain.ProviderKind, cfg Config) (Verifier, error) {
	r.mu.RLock()
	if v, ok := r.cache[kind]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if v, ok := r.cache[kind]; ok {
		return v, nil
	}

	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", kind)
	}

	v, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier %s: %w", kind, err)
	}

	r.cache[kind] = v
	return v, nil
}

// Kinds returns the registered provider kinds.
func (r *Registry) Kinds() []domain.ProviderKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.ProviderKind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}
