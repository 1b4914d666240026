// Package completion computes per-node completion status over a
// hierarchical content tree.
//
// The core is a two-pass transform over a topologically ordered tree:
//
//  1. A leaf pass (topological order) assigns a numeric completion
//     fraction to every trackable node from raw completion records.
//  2. A mark pass (reverse-topological order) propagates boolean
//     completeness and "resume here" status upward from leaves to the
//     root, followed by a forced-completion override for timed or
//     proctored assessment subtrees whose attempt window has closed.
//
// The transform is a pure function of its inputs: the tree shape and
// per-node completion mode, the user's completion records, and the set
// of completed exam subtree roots. Re-running it with identical inputs
// yields identical output fields. It performs no I/O itself; records
// and exam attempts are supplied by the record and exam subpackages.
//
// Example:
//
//	tr := completion.New()
//	tr.Collect(tree)
//	err := tr.Transform(ctx, tree, completion.UsageInfo{
//	    User:  "alice",
//	    Scope: "course-v1:Demo+101",
//	}, recordSource, examSource)
//	frac, ok := completion.Completion(tree, "leaf-1")
package completion
