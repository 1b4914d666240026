package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/coursekit/completion-go/completion/emit"
	"github.com/coursekit/completion-go/completion/exam"
	"github.com/coursekit/completion-go/completion/record"
)

// TransformerName is the namespace under which the transformer writes
// its output fields. Other transformers sharing the same structure use
// their own names, so the three slots here never collide with theirs.
const TransformerName = "blocks:completion"

// Transformer computes the completion, complete, and resume_block
// fields for every node of a content structure.
//
// The transform runs three passes:
//
//  1. Leaf pass, topological order: every node that is neither an
//     aggregator nor excluded receives a numeric completion fraction,
//     taken from the user's record for that block or 0.0 when no
//     record exists. Aggregator and excluded nodes carry no fraction.
//  2. Mark pass, reverse-topological order: a node directly recorded
//     as 100% complete is marked complete, and the single most
//     recently completed node additionally starts the resume path.
//     An aggregator is complete iff every non-excluded child is
//     complete (vacuously true with no eligible children) and carries
//     the resume flag whenever any child does. The whole pass is
//     skipped when no record is at 1.0: there is nothing to resume.
//  3. Exam override, top-down: every completed assessment subtree root
//     and all of its descendants are forced complete, whatever the
//     mark pass decided. A learner locked out of a timed exam can no
//     longer interact with it, so it counts as done. Roots with no
//     matching node are skipped silently; the assessment catalog and
//     the tree may come from different snapshots.
//
// A Transformer is stateless across calls and safe to reuse; output
// fields are reset at the start of every call, so a transform is a
// pure function of the structure, records, and exam set.
type Transformer struct {
	emitter emit.Emitter
	metrics *Metrics
}

// UsageInfo identifies whose completion records are in view.
type UsageInfo struct {
	// User is the learner whose progress is being aggregated.
	User string

	// Scope is the content scope (e.g. a course run) being aggregated.
	Scope string
}

// New creates a Transformer.
//
// Example:
//
//	tr := completion.New(
//	    completion.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	)
func New(opts ...Option) *Transformer {
	t := &Transformer{
		emitter: emit.NewNullEmitter(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the transformer's field namespace.
func (t *Transformer) Name() string {
	return TransformerName
}

// Collect declares the per-node metadata this transformer needs, so
// the structure provider can batch-fetch it before transforms run.
func (t *Transformer) Collect(s Structure) {
	s.RequestMetadata(MetadataCompletionMode)
}

// Completion returns the numeric completion fraction this transformer
// wrote for a node. The second return is false when the field is
// absent (aggregator or excluded nodes, or no transform has run).
func Completion(s Structure, key NodeKey) (float64, bool) {
	return s.Completion(TransformerName, key)
}

// Transform computes the three output fields for every node of s.
//
// Inputs are fetched through the record and exam sources for the user
// and scope named by usage. Any source failure fails the whole call;
// partial completion data would silently misreport progress. On
// success the structure holds a fully populated field set under this
// transformer's namespace.
func (t *Transformer) Transform(
	ctx context.Context,
	s Structure,
	usage UsageInfo,
	records record.Source,
	exams exam.Source,
) error {
	start := time.Now()
	t.emit(usage, "", "transform_start", nil)

	s.ResetFields(TransformerName)

	recs, err := records.Fetch(ctx, usage.User, usage.Scope)
	if err != nil {
		return t.fail(usage, "records", fmt.Errorf("failed to fetch completion records: %w", err))
	}

	// Reduce the raw records. Records arrive ordered by modification
	// time ascending, so the last fully complete record seen is the
	// most recent one and selects the resume block.
	completions := make(map[NodeKey]float64, len(recs))
	for _, rec := range recs {
		completions[NodeKey(rec.BlockKey)] = rec.Completion
	}

	completeKeys := make(map[NodeKey]struct{})
	var latestComplete NodeKey
	var haveLatest bool
	for _, rec := range recs {
		key := NodeKey(rec.BlockKey)
		if rec.Completion == 1.0 && completions[key] == 1.0 {
			completeKeys[key] = struct{}{}
			latestComplete = key
			haveLatest = true
		}
	}

	nodesVisited := t.assignLeafValues(s, completions)
	t.emit(usage, "", "leaf_pass_done", map[string]interface{}{
		"nodes":   nodesVisited,
		"records": len(recs),
	})

	examRoots, err := exams.CompletedRoots(ctx, usage.User, usage.Scope)
	if err != nil {
		return t.fail(usage, "exams", fmt.Errorf("failed to fetch completed exam subtrees: %w", err))
	}

	if haveLatest {
		nodesVisited += t.markComplete(s, completeKeys, latestComplete)
		t.emit(usage, "", "mark_pass_done", map[string]interface{}{
			"complete_blocks": len(completeKeys),
			"resume_block":    string(latestComplete),
		})
	} else {
		// Nothing is fully complete, so there is nowhere to resume
		// from and no completeness to propagate.
		t.emit(usage, "", "mark_pass_skipped", nil)
	}

	nodesVisited += t.overrideExamSubtrees(s, usage, examRoots)

	if t.metrics != nil {
		t.metrics.ObserveTransform(usage.Scope, time.Since(start))
		t.metrics.AddNodesVisited(usage.Scope, nodesVisited)
	}
	t.emit(usage, "", "transform_done", map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
		"nodes":       nodesVisited,
	})
	return nil
}

// assignLeafValues runs the leaf pass: every node in topological order
// receives its numeric completion fraction, except aggregator and
// excluded nodes, which carry none. Returns the number of nodes
// visited.
//
// The value is purely local to each node, so only the enclosing
// transform relies on the order; repeated visits of a DAG node write
// the same value again, which is harmless.
func (t *Transformer) assignLeafValues(s Structure, completions map[NodeKey]float64) int {
	order := s.TopologicalOrder()
	for _, key := range order {
		if isAggregatorOrExcluded(s, key) {
			continue
		}
		if value, ok := completions[key]; ok {
			s.SetCompletion(TransformerName, key, value)
		} else {
			// An untouched block is 0% complete, never unset.
			s.SetCompletion(TransformerName, key, 0.0)
		}
	}
	return len(order)
}

// markComplete runs the mark pass in reverse-topological order, so
// every node's children are decided before the node itself votes.
// Returns the number of nodes visited.
func (t *Transformer) markComplete(s Structure, completeKeys map[NodeKey]struct{}, latestComplete NodeKey) int {
	order := s.ReverseTopologicalOrder()
	for _, key := range order {
		if _, ok := completeKeys[key]; ok {
			s.SetComplete(TransformerName, key)
			if key == latestComplete {
				s.SetResumeBlock(TransformerName, key)
			}
			continue
		}

		if s.Mode(key) != ModeAggregator {
			// Excluded, or a trackable block below 100%: stays unset.
			continue
		}

		allComplete := true
		for _, child := range s.Children(key) {
			if isExcluded(s, child) {
				continue
			}
			if !s.Complete(TransformerName, child) {
				allComplete = false
				break
			}
		}
		if allComplete {
			s.SetComplete(TransformerName, key)
		}

		// The resume flag climbs from the latest completed block to
		// the root regardless of this node's own completeness.
		for _, child := range s.Children(key) {
			if s.ResumeBlock(TransformerName, child) {
				s.SetResumeBlock(TransformerName, key)
				break
			}
		}
	}
	return len(order)
}

// overrideExamSubtrees forces every completed assessment subtree fully
// complete: the root and all descendants, unconditionally. Runs after
// the mark pass so it wins on conflict. Numeric fractions and resume
// flags are untouched. Returns the number of nodes visited.
func (t *Transformer) overrideExamSubtrees(s Structure, usage UsageInfo, roots map[string]struct{}) int {
	visited := 0
	for root := range roots {
		key := NodeKey(root)
		if !s.Contains(key) {
			// Scope-mismatch tolerance: the exam catalog may name
			// blocks outside this snapshot of the tree.
			continue
		}

		s.SetComplete(TransformerName, key)
		subtree := 1

		// Shared descendants reach the queue once per parent path, so
		// the seen set keeps the walk linear in the subtree size.
		seen := map[NodeKey]struct{}{key: {}}
		queue := append([]NodeKey(nil), s.Children(key)...)
		for len(queue) > 0 {
			child := queue[0]
			queue = queue[1:]
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			s.SetComplete(TransformerName, child)
			subtree++
			queue = append(queue, s.Children(child)...)
		}
		visited += subtree

		if t.metrics != nil {
			t.metrics.IncExamOverrides(usage.Scope)
		}
		t.emit(usage, root, "exam_override", map[string]interface{}{
			"subtree_nodes": subtree,
		})
	}
	return visited
}

// fail records a transform failure and returns the error unchanged.
func (t *Transformer) fail(usage UsageInfo, reason string, err error) error {
	if t.metrics != nil {
		t.metrics.IncTransformErrors(usage.Scope, reason)
	}
	t.emit(usage, "", "transform_error", map[string]interface{}{
		"reason": reason,
		"error":  err.Error(),
	})
	return err
}

// emit sends an event to the configured emitter.
func (t *Transformer) emit(usage UsageInfo, blockKey, msg string, meta map[string]interface{}) {
	t.emitter.Emit(emit.Event{
		Scope:    usage.Scope,
		User:     usage.User,
		BlockKey: blockKey,
		Msg:      msg,
		Meta:     meta,
	})
}
