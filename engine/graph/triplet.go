package graph

import (
	"fmt"

	"github.com/verdicthq/verdict/engine/core"
)

// Triplet is a single (subject, relationship, object) fact, optionally
// carrying node types and edge attributes.
type Triplet struct {
	Subject      string
	SubjectType  string
	Relationship string
	Object       string
	ObjectType   string
	EdgeAttrs    core.Attributes
}

// ParseTriplet builds a Triplet from a raw row. Three row shapes are
// accepted:
//
//	[subject, relationship, object]
//	[subject, subjectType, relationship, object, objectType]
//	[subject, subjectType, relationship, object, objectType, edgeAttrs]
//
// Every positional element must be a non-empty string except edgeAttrs,
// which must be a mapping.
func ParseTriplet(row []any) (Triplet, error) {
	var t Triplet
	switch len(row) {
	case 3:
		fields, err := stringFields(row[:3])
		if err != nil {
			return t, err
		}
		t.Subject, t.Relationship, t.Object = fields[0], fields[1], fields[2]
	case 5, 6:
		fields, err := stringFields(row[:5])
		if err != nil {
			return t, err
		}
		t.Subject, t.SubjectType, t.Relationship, t.Object, t.ObjectType =
			fields[0], fields[1], fields[2], fields[3], fields[4]
		if len(row) == 6 {
			attrs, ok := row[5].(map[string]any)
			if !ok {
				return t, fmt.Errorf("triplet: element 6 must be a mapping, got %T", row[5])
			}
			t.EdgeAttrs = core.Attributes(core.CloneMap(attrs))
		}
	default:
		return t, fmt.Errorf("triplet: expected 3, 5 or 6 elements, got %d", len(row))
	}
	return t, nil
}

// UnmarshalYAML decodes the sequence forms accepted by ParseTriplet.
func (t *Triplet) UnmarshalYAML(unmarshal func(any) error) error {
	var row []any
	if err := unmarshal(&row); err != nil {
		return fmt.Errorf("triplet: expected a sequence: %w", err)
	}
	parsed, err := ParseTriplet(row)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func stringFields(row []any) ([]string, error) {
	out := make([]string, len(row))
	for i, v := range row {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("triplet: element %d must be a string, got %T", i+1, v)
		}
		if s == "" {
			return nil, fmt.Errorf("triplet: element %d must not be empty", i+1)
		}
		out[i] = s
	}
	return out, nil
}
