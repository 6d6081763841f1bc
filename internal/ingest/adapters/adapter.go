// Package adapters contains the source adapters: one per external source
// kind. New kinds plug in by implementing the Adapter contract; the
// scheduler knows nothing beyond it.
package adapters

import (
	"context"

	"github.com/curatorhq/curator/internal/model"
)

// Adapter fetches raw items for one source kind. Implementations are
// stateless besides their own configuration and must honor the context
// deadline: on timeout, items already emitted remain valid.
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// Kind returns the source kind this adapter serves
	Kind() model.SourceKind

	// Fetch pulls raw items for the given source. A non-nil error with a
	// non-empty item slice means a partial result; the items are still
	// usable.
	Fetch(ctx context.Context, src model.Source) ([]model.RawItem, error)
}

// Registry maps source kinds to their adapters
type Registry struct {
	byKind map[model.SourceKind]Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[model.SourceKind]Adapter),
	}
}

// Register installs an adapter for its kind, replacing any previous one
func (r *Registry) Register(adapter Adapter) {
	r.byKind[adapter.Kind()] = adapter
}

// ForKind returns the adapter serving the given kind
func (r *Registry) ForKind(kind model.SourceKind) (Adapter, bool) {
	adapter, ok := r.byKind[kind]
	return adapter, ok
}
