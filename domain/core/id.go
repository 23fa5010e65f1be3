package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// MoleculeKey identifies one molecular species within a screen.
	MoleculeKey ID
	// RunID identifies one screening run over a molecule collection.
	RunID ID
)

// String conversions for domain IDs
func (k MoleculeKey) String() string { return ID(k).String() }
func (id RunID) String() string      { return ID(id).String() }

// ParseMoleculeKey parses a string into MoleculeKey
func ParseMoleculeKey(s string) (MoleculeKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("molecule key cannot be empty")
	}
	return MoleculeKey(s), nil
}
