package completion

// CompletionMode describes how a node's completeness is determined.
//
// The mode is per-node metadata supplied by the structure provider.
// A node with no recorded mode is treated as ModeCompletable: it is
// tracked directly, like a leaf, never derived from children.
type CompletionMode int

const (
	// ModeCompletable nodes are tracked directly through completion
	// records. This is the zero value and the default for nodes with
	// missing or unrecognized mode metadata.
	ModeCompletable CompletionMode = iota

	// ModeAggregator nodes derive completeness entirely from their
	// children; they never carry a numeric completion fraction.
	ModeAggregator

	// ModeExcluded nodes are not tracked at all and do not participate
	// in a parent's completeness vote.
	ModeExcluded
)

// String returns the metadata spelling of the mode.
func (m CompletionMode) String() string {
	switch m {
	case ModeAggregator:
		return "aggregator"
	case ModeExcluded:
		return "excluded"
	default:
		return "completable"
	}
}

// ParseCompletionMode maps a metadata string to a CompletionMode.
//
// Unknown or empty values map to ModeCompletable. A missing mode is a
// normal condition, not an error: nodes fail closed to the directly
// trackable treatment.
func ParseCompletionMode(s string) CompletionMode {
	switch s {
	case "aggregator":
		return ModeAggregator
	case "excluded":
		return ModeExcluded
	default:
		return ModeCompletable
	}
}

// isExcluded reports whether the node's mode is ModeExcluded.
func isExcluded(s Structure, key NodeKey) bool {
	return s.Mode(key) == ModeExcluded
}

// isAggregatorOrExcluded reports whether the node carries no numeric
// completion fraction of its own.
func isAggregatorOrExcluded(s Structure, key NodeKey) bool {
	mode := s.Mode(key)
	return mode == ModeAggregator || mode == ModeExcluded
}
