package completion

import "github.com/coursekit/completion-go/completion/emit"

// Option is a functional option for configuring a Transformer.
//
// Options provide a clean, extensible configuration API:
//   - Chainable: tr := completion.New(completion.WithEmitter(e), completion.WithMetrics(m))
//   - Self-documenting: option names describe their purpose
//   - Optional: only specify what you need
//
// Example:
//
//	tr := completion.New(
//	    completion.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	    completion.WithMetrics(completion.NewMetrics(registry)),
//	)
type Option func(*Transformer)

// WithEmitter sets the observability emitter the transformer sends
// events to.
//
// Default: emit.NullEmitter (events discarded).
func WithEmitter(e emit.Emitter) Option {
	return func(t *Transformer) {
		if e != nil {
			t.emitter = e
		}
	}
}

// WithMetrics sets the Prometheus metrics collector the transformer
// records into.
//
// Default: nil (no metrics recorded).
func WithMetrics(m *Metrics) Option {
	return func(t *Transformer) {
		t.metrics = m
	}
}
