package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/folio/internal/domain"
)

// Registry implements the BackendRegistry interface.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]domain.ExtractionBackend
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:       sync.RWMutex{},
		backends: make(map[string]domain.ExtractionBackend),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(_ context.Context, backend domain.ExtractionBackend) error {
	if backend == nil {
		return errors.New("backend cannot be nil")
	}

	name := backend.Name()
	if name == "" {
		return errors.New("backend name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}

	r.backends[name] = backend

	return nil
}

// Get retrieves a backend by name.
func (r *Registry) Get(_ context.Context, name string) (domain.ExtractionBackend, error) {
	if name == "" {
		return nil, errors.New("backend name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("backend %s not found", name)
	}

	return backend, nil
}

// ForModel returns the backend named by the model descriptor.
func (r *Registry) ForModel(ctx context.Context, model domain.ModelDescriptor) (domain.ExtractionBackend, error) {
	name := model.Backend
	if name == "" {
		name = domain.DefaultBackend
	}

	backend, err := r.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", model.ID, err)
	}

	return backend, nil
}

// List returns the registered backend names in sorted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}
