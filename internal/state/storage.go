// ABOUTME: Storage interface and property bag types for durable bot state
// ABOUTME: Defines the batched read/write/delete contract all backends implement

package state

import (
	"context"
	"errors"
)

// ErrNoScope is returned when an activity lacks the identifiers needed to
// compute a state scope key (e.g. user state for an activity with no sender).
var ErrNoScope = errors.New("cannot compute state scope from activity")

// PropertyBag is an arbitrary serializable set of named properties stored
// under a single scope key.
type PropertyBag map[string]any

// Storage is the persistence contract for scoped state. Operations are
// batched: a single call may touch several scope keys. Semantics are
// last-writer-wins per key; backends wanting stronger guarantees layer
// compare-and-swap underneath this interface rather than changing it.
type Storage interface {
	// Read returns the bags for the requested keys. Keys with no stored
	// bag are absent from the result, not an error.
	Read(ctx context.Context, keys []string) (map[string]PropertyBag, error)

	// Write persists the given bags, replacing any previous bag per key.
	Write(ctx context.Context, changes map[string]PropertyBag) error

	// Delete removes the bags for the given keys. Unknown keys are ignored.
	Delete(ctx context.Context, keys []string) error
}

// Clone returns a deep copy of the bag. Nested maps and slices are copied;
// scalar values are shared (they are immutable to the caller anyway).
func (b PropertyBag) Clone() PropertyBag {
	if b == nil {
		return nil
	}
	out := make(PropertyBag, len(b))
	for k, v := range b {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case PropertyBag:
		return map[string]any(t.Clone())
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}
