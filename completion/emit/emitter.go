package emit

// Emitter receives and processes observability events from completion
// transforms.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and dashboards
//
// Implementations should be:
//   - Non-blocking: Avoid slowing down the transform
//   - Thread-safe: May be called concurrently
//   - Resilient: Handle backend failures without crashing the caller
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit should not panic and should not block the transform; errors
	// are logged internally, never returned.
	Emit(event Event)
}
