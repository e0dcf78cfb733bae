package domain

import (
	"errors"
	"fmt"
)

// DefaultBackend serves models that do not name a backend.
const DefaultBackend = "openai"

// ModelRegistry is an immutable, ordered table of model descriptors.
// It is built once at startup and safe for concurrent reads.
type ModelRegistry struct {
	order []string
	byID  map[string]ModelDescriptor
}

// NewModelRegistry builds a registry from descriptors, preserving their order.
func NewModelRegistry(descriptors ...ModelDescriptor) (*ModelRegistry, error) {
	r := &ModelRegistry{
		order: make([]string, 0, len(descriptors)),
		byID:  make(map[string]ModelDescriptor, len(descriptors)),
	}

	for _, d := range descriptors {
		if d.ID == "" {
			return nil, errors.New("model id cannot be empty")
		}
		if _, exists := r.byID[d.ID]; exists {
			return nil, fmt.Errorf("model %s registered twice", d.ID)
		}
		if d.InputPerMTok < 0 || d.CachedInputPerMTok < 0 || d.OutputPerMTok < 0 {
			return nil, fmt.Errorf("model %s has a negative rate", d.ID)
		}
		if d.Backend == "" {
			d.Backend = DefaultBackend
		}

		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}

	return r, nil
}

// List returns all descriptors in registration order.
func (r *ModelRegistry) List() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Resolve looks up a descriptor by identifier.
func (r *ModelRegistry) Resolve(id string) (ModelDescriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return ModelDescriptor{}, &UnknownModelError{ID: id}
	}
	return d, nil
}
