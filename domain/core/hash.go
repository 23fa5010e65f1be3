package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Domain-specific hash types
type (
	// DesignHash fingerprints an experiment design and its derived tables.
	DesignHash Hash
	// FamilyID groups the per-lag p-values of one candidate period for FDR.
	FamilyID Hash
)

// Constructors
func NewDesignHash(data []byte) DesignHash { return DesignHash(NewHash(data)) }

// String conversions
func (h DesignHash) String() string { return Hash(h).String() }
func (h FamilyID) String() string   { return Hash(h).String() }

// ComputeFamilyID derives the FDR family identifier for one candidate period
// within a design. Same design + same period always hash identically.
func ComputeFamilyID(design DesignHash, period int) FamilyID {
	var data strings.Builder
	data.WriteString(design.String())
	data.WriteString(fmt.Sprintf("/period=%d", period))
	return FamilyID(NewHash([]byte(data.String())))
}
