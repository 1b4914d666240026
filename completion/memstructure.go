package completion

import (
	"fmt"
	"sync"
)

// MemStructure is an in-memory implementation of Structure.
//
// It holds the node arena, the parent-to-child edge relation, per-node
// completion modes, and a side table of output fields keyed by
// (owner, node). Designed for:
//   - Testing and development
//   - Callers that materialize the tree themselves before transforming
//
// MemStructure is thread-safe: field reads and writes may happen
// concurrently, which permits parallel transforms across independent
// subtrees as long as the caller respects the ordering dependency of
// the mark pass.
//
// Construct through StructureBuilder, which computes the topological
// order and rejects cyclic edge sets.
type MemStructure struct {
	children map[NodeKey][]NodeKey
	modes    map[NodeKey]CompletionMode
	topo     []NodeKey
	rtopo    []NodeKey

	mu        sync.RWMutex
	requested map[string]struct{}
	fields    map[string]map[NodeKey]*fieldSlot // owner -> node -> slot
}

// fieldSlot holds the three output fields for one (owner, node) pair.
// Completion uses an explicit presence bit so absence is representable;
// the booleans default to false, matching the unset state.
type fieldSlot struct {
	completion    float64
	hasCompletion bool
	complete      bool
	resume        bool
}

// StructureBuilder accumulates nodes and edges and produces a
// MemStructure with a dependency-respecting linearization.
//
// Example:
//
//	b := completion.NewBuilder()
//	b.Add("course", completion.ModeAggregator)
//	b.Add("chapter", completion.ModeAggregator)
//	b.Add("problem", completion.ModeCompletable)
//	b.Connect("course", "chapter")
//	b.Connect("chapter", "problem")
//	tree, err := b.Build()
type StructureBuilder struct {
	order    []NodeKey
	modes    map[NodeKey]CompletionMode
	children map[NodeKey][]NodeKey
	parents  map[NodeKey]int
	badEdge  *NodeKey
}

// NewBuilder creates an empty StructureBuilder.
func NewBuilder() *StructureBuilder {
	return &StructureBuilder{
		modes:    make(map[NodeKey]CompletionMode),
		children: make(map[NodeKey][]NodeKey),
		parents:  make(map[NodeKey]int),
	}
}

// Add registers a node with its completion mode. Re-adding an existing
// key overwrites the mode and keeps the original position.
func (b *StructureBuilder) Add(key NodeKey, mode CompletionMode) *StructureBuilder {
	if _, exists := b.modes[key]; !exists {
		b.order = append(b.order, key)
	}
	b.modes[key] = mode
	return b
}

// Connect adds a parent-to-child edge. Both endpoints must have been
// added; a dangling endpoint surfaces as an error from Build.
func (b *StructureBuilder) Connect(parent, child NodeKey) *StructureBuilder {
	if _, ok := b.modes[parent]; !ok {
		if b.badEdge == nil {
			k := parent
			b.badEdge = &k
		}
		return b
	}
	if _, ok := b.modes[child]; !ok {
		if b.badEdge == nil {
			k := child
			b.badEdge = &k
		}
		return b
	}
	b.children[parent] = append(b.children[parent], child)
	b.parents[child]++
	return b
}

// Build computes the topological order and returns the finished
// structure.
//
// Returns ErrUnknownNode (wrapped) if an edge referenced a key that was
// never added, and ErrStructuralInvariant (wrapped) if the edge set
// contains a cycle so no dependency-respecting order exists.
func (b *StructureBuilder) Build() (*MemStructure, error) {
	if b.badEdge != nil {
		return nil, fmt.Errorf("edge references %q: %w", *b.badEdge, ErrUnknownNode)
	}

	// Kahn's algorithm. The queue is seeded in insertion order so the
	// resulting order is stable across builds of the same input.
	indegree := make(map[NodeKey]int, len(b.order))
	for key, n := range b.parents {
		indegree[key] = n
	}

	queue := make([]NodeKey, 0, len(b.order))
	for _, key := range b.order {
		if indegree[key] == 0 {
			queue = append(queue, key)
		}
	}

	topo := make([]NodeKey, 0, len(b.order))
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		topo = append(topo, key)
		for _, child := range b.children[key] {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(topo) != len(b.order) {
		return nil, fmt.Errorf("%d of %d nodes unplaceable: %w",
			len(b.order)-len(topo), len(b.order), ErrStructuralInvariant)
	}

	rtopo := make([]NodeKey, len(topo))
	for i, key := range topo {
		rtopo[len(topo)-1-i] = key
	}

	children := make(map[NodeKey][]NodeKey, len(b.children))
	for key, kids := range b.children {
		children[key] = append([]NodeKey(nil), kids...)
	}
	modes := make(map[NodeKey]CompletionMode, len(b.modes))
	for key, mode := range b.modes {
		modes[key] = mode
	}

	return &MemStructure{
		children:  children,
		modes:     modes,
		topo:      topo,
		rtopo:     rtopo,
		requested: make(map[string]struct{}),
		fields:    make(map[string]map[NodeKey]*fieldSlot),
	}, nil
}

// Contains reports whether key names a node in this structure.
func (s *MemStructure) Contains(key NodeKey) bool {
	_, ok := s.modes[key]
	return ok
}

// TopologicalOrder returns the node keys in dependency order, each node
// after all of its ancestors. Callers must not mutate the slice.
func (s *MemStructure) TopologicalOrder() []NodeKey {
	return s.topo
}

// ReverseTopologicalOrder returns the node keys children-first.
// Callers must not mutate the slice.
func (s *MemStructure) ReverseTopologicalOrder() []NodeKey {
	return s.rtopo
}

// Children returns the node's direct children in edge order.
func (s *MemStructure) Children(key NodeKey) []NodeKey {
	return s.children[key]
}

// Mode returns the node's completion mode, ModeCompletable for unknown
// keys or nodes added without a mode.
func (s *MemStructure) Mode(key NodeKey) CompletionMode {
	return s.modes[key]
}

// RequestMetadata records a collection-phase metadata request.
func (s *MemStructure) RequestMetadata(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requested[name] = struct{}{}
}

// RequestedMetadata returns the metadata field names transformers have
// declared they need. Structure providers use this to batch-fetch
// metadata before transforms run.
func (s *MemStructure) RequestedMetadata() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.requested))
	for name := range s.requested {
		names = append(names, name)
	}
	return names
}

// ResetFields discards every field written under the owner's namespace.
func (s *MemStructure) ResetFields(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields, owner)
}

// slot returns the field slot for (owner, key), creating it on demand.
// Caller must hold the write lock.
func (s *MemStructure) slot(owner string, key NodeKey) *fieldSlot {
	byNode := s.fields[owner]
	if byNode == nil {
		byNode = make(map[NodeKey]*fieldSlot)
		s.fields[owner] = byNode
	}
	sl := byNode[key]
	if sl == nil {
		sl = &fieldSlot{}
		byNode[key] = sl
	}
	return sl
}

// SetCompletion writes the numeric completion fraction for a node.
func (s *MemStructure) SetCompletion(owner string, key NodeKey, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(owner, key)
	sl.completion = value
	sl.hasCompletion = true
}

// Completion reads the numeric completion fraction; the second return
// is false when the field is absent.
func (s *MemStructure) Completion(owner string, key NodeKey) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl := s.fields[owner][key]; sl != nil && sl.hasCompletion {
		return sl.completion, true
	}
	return 0, false
}

// SetComplete marks a node complete.
func (s *MemStructure) SetComplete(owner string, key NodeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(owner, key).complete = true
}

// Complete reports whether a node has been marked complete.
func (s *MemStructure) Complete(owner string, key NodeKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl := s.fields[owner][key]
	return sl != nil && sl.complete
}

// SetResumeBlock marks a node as lying on the resume path.
func (s *MemStructure) SetResumeBlock(owner string, key NodeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(owner, key).resume = true
}

// ResumeBlock reports whether a node lies on the resume path.
func (s *MemStructure) ResumeBlock(owner string, key NodeKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl := s.fields[owner][key]
	return sl != nil && sl.resume
}

var _ Structure = (*MemStructure)(nil)
