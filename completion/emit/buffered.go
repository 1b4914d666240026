package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// This emitter captures all events and provides query capabilities for
// post-transform analysis. Events are organized by scope.
//
// Use cases:
//   - Development and debugging
//   - Testing and validation
//   - Feeding dashboards without an external backend
//
// Warning: events accumulate in memory; call Clear between transforms
// in long-lived processes.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	tr := completion.New(completion.WithEmitter(emitter))
//	_ = tr.Transform(ctx, tree, usage, records, exams)
//	overrides := emitter.HistoryWithFilter(scope, emit.HistoryFilter{Msg: "exam_override"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // scope -> events
}

// HistoryFilter specifies criteria for filtering captured events.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	// BlockKey filters by node key (empty = no filter).
	BlockKey string

	// Msg filters by event name (empty = no filter).
	Msg string
}

// NewBufferedEmitter creates a new BufferedEmitter.
//
// Safe for concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.Scope] = append(b.events[event.Scope], event)
}

// History retrieves all events for a scope in emission order.
//
// Returns an empty slice when no events exist. The result is a copy.
func (b *BufferedEmitter) History(scope string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[scope]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// HistoryWithFilter retrieves the events for a scope matching the
// filter, in emission order.
func (b *BufferedEmitter) HistoryWithFilter(scope string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[scope] {
		if filter.BlockKey != "" && event.BlockKey != filter.BlockKey {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		result = append(result, event)
	}
	return result
}

// Clear removes stored events.
//
// A non-empty scope clears only that scope's events; an empty scope
// clears everything.
func (b *BufferedEmitter) Clear(scope string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if scope == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, scope)
	}
}
