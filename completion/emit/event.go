package emit

// Event represents an observability event emitted during a completion
// transform.
//
// Events provide insight into transform behavior:
//   - Transform start/done/error
//   - Pass boundaries (leaf assignment, mark propagation)
//   - Exam subtree overrides
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Buffer in memory for inspection
type Event struct {
	// Scope identifies the content scope being transformed.
	Scope string

	// User identifies whose completion records are in view.
	User string

	// BlockKey identifies the node this event concerns.
	// Empty string for transform-level events.
	BlockKey string

	// Msg is a machine-stable event name, e.g. "transform_start",
	// "leaf_pass_done", "mark_pass_skipped", "exam_override",
	// "transform_done", "transform_error".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Transform duration in milliseconds
	//   - "nodes": Number of nodes visited
	//   - "records": Number of raw records fetched
	//   - "error": Error details
	Meta map[string]interface{}
}
