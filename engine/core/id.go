package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the canonical identifier type for stored entities (chunks,
// documents, ingestion runs).
type ID string

// NewID generates a new random ID.
func NewID() (ID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID generates a new random ID and panics on failure.
// Use only where ID generation cannot reasonably fail (tests, init paths).
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}
