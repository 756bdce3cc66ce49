package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/unifin/unifin/internal/engine/record"
)

// ProviderAdapter converts one provider's raw payload into canonical records.
// Implementations live next to the provider gateways; registering a new
// source requires no changes to the normalizer or its callers.
type ProviderAdapter interface {
	// Source returns the source type this adapter handles
	Source() record.Source

	// ToCanonical converts a provider-shaped payload into canonical records.
	// Individual malformed records are skipped and reported in the error
	// list; only a structurally invalid top-level payload returns a non-nil
	// error.
	ToCanonical(raw json.RawMessage) (record.Batch, []*RecordError, error)
}

// Normalizer dispatches raw payloads to the registered adapter per source
type Normalizer struct {
	adapters map[record.Source]ProviderAdapter
}

// NewNormalizer creates a normalizer with the given adapters registered
func NewNormalizer(adapters ...ProviderAdapter) *Normalizer {
	n := &Normalizer{adapters: make(map[record.Source]ProviderAdapter)}
	for _, a := range adapters {
		n.Register(a)
	}
	return n
}

// Register adds or replaces the adapter for a source
func (n *Normalizer) Register(a ProviderAdapter) {
	n.adapters[a.Source()] = a
}

// Sources returns the source types with a registered adapter
func (n *Normalizer) Sources() []record.Source {
	sources := make([]record.Source, 0, len(n.adapters))
	for s := range n.adapters {
		sources = append(sources, s)
	}
	return sources
}

// Normalize converts a raw payload for the given source into canonical
// records. Partial success: invalid records are reported alongside the
// valid ones, never aborting the batch.
func (n *Normalizer) Normalize(source record.Source, raw json.RawMessage) (record.Batch, []*RecordError, error) {
	adapter, ok := n.adapters[source]
	if !ok {
		return record.Batch{}, nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return adapter.ToCanonical(raw)
}
