package completion

// NodeKey identifies a node in the content tree. Keys are opaque,
// globally unique, and compared by value; the canonical string form is
// the identity used everywhere in this package.
type NodeKey string

// Field names one of the three output slots a Transformer writes.
//
// The set is closed: transformers write exactly these fields, each
// through a typed accessor on Structure, so no stringly-typed field
// lookup is involved.
type Field int

const (
	// FieldCompletion is the numeric completion fraction in [0, 1].
	// Absent on aggregator and excluded nodes.
	FieldCompletion Field = iota

	// FieldComplete is the boolean completeness flag.
	FieldComplete

	// FieldResumeBlock marks the path from the root to the most
	// recently completed node.
	FieldResumeBlock
)

// String returns the field's wire spelling.
func (f Field) String() string {
	switch f {
	case FieldCompletion:
		return "completion"
	case FieldComplete:
		return "complete"
	case FieldResumeBlock:
		return "resume_block"
	default:
		return "unknown"
	}
}

// MetadataCompletionMode is the per-node metadata field the transformer
// declares during collection so the structure provider can batch-fetch
// it for every node.
const MetadataCompletionMode = "completion_mode"

// Structure is the tree handle the transformer operates on.
//
// It exposes the node set in dependency order, the parent-to-child edge
// relation, per-node completion-mode metadata, and per-owner output
// field slots. Field writes are namespaced by the owning transformer's
// name so independent transformers can share one structure without
// colliding.
//
// The structure may be a DAG: a node reachable through multiple parents
// appears once in each ordering, and field writes must be idempotent
// under repeat visits.
type Structure interface {
	// Contains reports whether key names a node in this structure.
	Contains(key NodeKey) bool

	// TopologicalOrder returns every node key, each visited after all
	// of its ancestors. Sibling order is unspecified but stable.
	TopologicalOrder() []NodeKey

	// ReverseTopologicalOrder returns every node key, each visited
	// after all of its descendants (post-order, children first).
	ReverseTopologicalOrder() []NodeKey

	// Children returns the node's direct children in edge order.
	// Unknown keys return nil.
	Children(key NodeKey) []NodeKey

	// Mode returns the node's completion mode. Nodes with missing mode
	// metadata report ModeCompletable.
	Mode(key NodeKey) CompletionMode

	// RequestMetadata records that a transformer needs the named
	// per-node metadata field available on every node. This is a
	// collection-phase registration, not a runtime fetch.
	RequestMetadata(name string)

	// ResetFields discards every field previously written under the
	// owner's namespace. Transformers call this at the start of a
	// transform so output fields are always derived fresh.
	ResetFields(owner string)

	// SetCompletion writes the numeric completion fraction for a node
	// under the owner's namespace.
	SetCompletion(owner string, key NodeKey, value float64)

	// Completion reads the numeric completion fraction. The second
	// return is false when the field is absent (aggregator or excluded
	// nodes, or before a transform has run).
	Completion(owner string, key NodeKey) (float64, bool)

	// SetComplete marks a node complete under the owner's namespace.
	SetComplete(owner string, key NodeKey)

	// Complete reports whether a node has been marked complete.
	// Unset means false.
	Complete(owner string, key NodeKey) bool

	// SetResumeBlock marks a node as lying on the resume path under
	// the owner's namespace.
	SetResumeBlock(owner string, key NodeKey)

	// ResumeBlock reports whether a node lies on the resume path.
	// Unset means false.
	ResumeBlock(owner string, key NodeKey) bool
}
