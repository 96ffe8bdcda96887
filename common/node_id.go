package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID is the 128-bit identity assigned to every frontend scene node at creation.
// It joins a frontend node to its backend mirrors and is comparable, so it can be used
// directly as a map key.
type NodeID uuid.UUID

// NilNodeID is the zero identity. No live node is ever assigned it.
var NilNodeID NodeID

// NewNodeID generates a new random (version 4) NodeID.
//
// Returns:
//   - NodeID: a freshly generated identity
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// ParseNodeID parses the canonical textual form of a NodeID.
//
// Parameters:
//   - s: the string to parse (e.g. "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
//
// Returns:
//   - NodeID: the parsed identity
//   - error: error if s is not a valid UUID
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilNodeID, fmt.Errorf("common: invalid node id %q: %w", s, err)
	}
	return NodeID(u), nil
}

// IsNil reports whether id is the zero identity.
func (id NodeID) IsNil() bool {
	return id == NilNodeID
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}
