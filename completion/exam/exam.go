// Package exam supplies the set of timed and proctored assessment
// subtrees whose current attempt has reached a completed status.
//
// A learner loses access to these assessments once the attempt window
// closes, so for completion purposes the whole subtree is treated as
// complete even if not every problem inside it was attempted. The
// completion transformer forces the subtree complete after its normal
// propagation pass.
package exam

import "context"

// Source reports which assessment subtree roots are complete for one
// user within one content scope.
//
// The returned set contains canonical block key strings. Keys that do
// not match any node in the structure are tolerated by the transformer:
// the assessment catalog and the tree may come from slightly different
// snapshots. Fetch failures must be returned, never swallowed.
type Source interface {
	// CompletedRoots returns the subtree root keys whose current
	// attempt is in a completed status.
	CompletedRoots(ctx context.Context, user, scope string) (map[string]struct{}, error)
}

// StaticSource is a fixed-set implementation of Source, for tests and
// for callers that resolve attempts themselves.
type StaticSource struct {
	roots map[string]struct{}
}

// NewStaticSource creates a source that always reports the given keys.
func NewStaticSource(keys ...string) *StaticSource {
	roots := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		roots[key] = struct{}{}
	}
	return &StaticSource{roots: roots}
}

// CompletedRoots returns a copy of the configured key set (implements
// Source).
func (s *StaticSource) CompletedRoots(_ context.Context, _, _ string) (map[string]struct{}, error) {
	roots := make(map[string]struct{}, len(s.roots))
	for key := range s.roots {
		roots[key] = struct{}{}
	}
	return roots, nil
}

var _ Source = (*StaticSource)(nil)
