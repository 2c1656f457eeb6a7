package core

import (
	"fmt"
	"maps"

	"github.com/mohae/deepcopy"
)

// deepCopyMap returns a deep copy of the provided map[string]any.
//
// If the underlying copy cannot be asserted back to map[string]any an error is returned.
func deepCopyMap(m map[string]any) (map[string]any, error) {
	copiedInterface := deepcopy.Copy(m)
	copied, ok := copiedInterface.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to copy map")
	}
	return copied, nil
}

// CloneMap returns a deep copy of m; nil yields nil. Stores use it to hand
// out attribute and metadata maps without exposing internal state. When the
// deep copy cannot be asserted back (never the case for plain JSON-like
// values), it degrades to a shallow copy rather than failing.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	copied, err := deepCopyMap(m)
	if err != nil {
		shallow := make(map[string]any, len(m))
		maps.Copy(shallow, m)
		return shallow
	}
	return copied
}

// DeepCopy returns a deep copy of v, preserving the concrete Metadata and
// Attributes types instead of devolving into the plain map the deepcopy
// library would produce. Stores hand out copies of these maps so callers
// can never mutate persisted state through a returned reference.
//
// Nil maps are treated as absent and yield the zero value of T with a nil
// error. For all other types it falls back to deepcopy.Copy.
func DeepCopy[T any](v T) (T, error) {
	var zero T

	switch src := any(v).(type) {
	case Metadata:
		return deepCopyMetadata(src, zero)
	case Attributes:
		return deepCopyAttributes(src, zero)
	default:
		return deepCopyGeneric(v, zero)
	}
}

// deepCopyMetadata deep-copies a Metadata value and returns it as type T.
func deepCopyMetadata[T any](src Metadata, zero T) (T, error) {
	if src == nil {
		return zero, nil
	}
	copied, err := deepCopyMap(map[string]any(src))
	if err != nil {
		return zero, fmt.Errorf("failed to copy Metadata type: %w", err)
	}
	dst := Metadata(copied)
	result, ok := any(dst).(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast Metadata to type %T", zero)
	}
	return result, nil
}

// deepCopyAttributes deep-copies an Attributes value and returns it as type T.
func deepCopyAttributes[T any](src Attributes, zero T) (T, error) {
	if src == nil {
		return zero, nil
	}
	copied, err := deepCopyMap(map[string]any(src))
	if err != nil {
		return zero, fmt.Errorf("failed to copy Attributes type: %w", err)
	}
	dst := Attributes(copied)
	result, ok := any(dst).(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast Attributes to type %T", zero)
	}
	return result, nil
}

// deepCopyGeneric copies v using github.com/mohae/deepcopy for values that
// don't require special Metadata/Attributes handling.
func deepCopyGeneric[T any](v T, zero T) (T, error) {
	copied := deepcopy.Copy(v)
	result, ok := copied.(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast copied value to type %T", zero)
	}
	return result, nil
}
