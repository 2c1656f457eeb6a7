package core

// -----------------------------------------------------------------------------
// Metadata
// -----------------------------------------------------------------------------

// Metadata carries free-form key/value details attached to a stored chunk,
// such as the originating source file or page number.
type Metadata map[string]any

// AsMap exposes the underlying map.
func (m Metadata) AsMap() map[string]any {
	return m
}

// Source returns the metadata "source" entry, or fallback when absent or
// not a string.
func (m Metadata) Source(fallback string) string {
	if m == nil {
		return fallback
	}
	if s, ok := m["source"].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Merge returns a new Metadata with entries from other layered on top of m.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// -----------------------------------------------------------------------------
// Attributes
// -----------------------------------------------------------------------------

// Attributes carries the property bag of a knowledge graph node.
type Attributes map[string]any

// AsMap exposes the underlying map.
func (a Attributes) AsMap() map[string]any {
	return a
}
