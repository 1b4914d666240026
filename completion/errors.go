package completion

import "errors"

// ErrStructuralInvariant indicates that the supplied tree violates the
// ordering contract: a node could not be placed after all of its
// ancestors in a topological order (a cycle in the edge set).
//
// The traversal order is a precondition supplied by the structure
// provider, so this is a fatal contract violation for the whole
// transform call, not a locally recoverable condition.
var ErrStructuralInvariant = errors.New("structural invariant violated: edge set contains a cycle")

// ErrUnknownNode indicates an operation referenced a node key that is
// not part of the structure.
var ErrUnknownNode = errors.New("unknown node key")
