package record

import (
	"context"
	"sort"
	"sync"
)

// MemSource is an in-memory implementation of Source.
//
// It stores records in maps keyed by (user, scope). Designed for:
//   - Testing and development
//   - Single-process deployments where records are produced in-process
//
// MemSource is thread-safe and supports concurrent access.
//
// Limitations:
//   - Data is lost when the process terminates
//   - Not suitable for distributed systems
//
// For production use with persistence, use SQLiteSource or MySQLSource.
type MemSource struct {
	mu      sync.RWMutex
	records map[string][]Record // user + "\x00" + scope -> records
}

// NewMemSource creates an empty in-memory record source.
func NewMemSource() *MemSource {
	return &MemSource{
		records: make(map[string][]Record),
	}
}

// memKey builds the map key for a (user, scope) pair. The NUL separator
// cannot appear in either component.
func memKey(user, scope string) string {
	return user + "\x00" + scope
}

// Save stores a record for the user and scope. A record for the same
// block replaces the earlier one, keeping the new Modified time.
// The signature matches the SQL-backed sources so writers can swap
// implementations.
func (m *MemSource) Save(_ context.Context, user, scope string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(user, scope)
	for i, existing := range m.records[key] {
		if existing.BlockKey == rec.BlockKey {
			m.records[key][i] = rec
			return nil
		}
	}
	m.records[key] = append(m.records[key], rec)
	return nil
}

// Fetch returns the user's records within the scope ordered by Modified
// ascending (implements Source). Ties keep insertion order, so later
// saves win when the transformer scans for the latest complete record.
func (m *MemSource) Fetch(_ context.Context, user, scope string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.records[memKey(user, scope)]
	result := make([]Record, len(records))
	copy(result, records)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Modified.Before(result[j].Modified)
	})
	return result, nil
}

var _ Source = (*MemSource)(nil)
