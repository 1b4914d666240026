// Package record supplies raw per-leaf completion records to the
// completion transformer.
//
// A record states how far one user has progressed through one block of
// one content scope. Sources fetch the records in view for a
// (user, scope) pair; the transformer reduces them to per-node fields.
package record

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when a source is used after Close.
var ErrClosed = errors.New("record source is closed")

// Record is a raw completion entry for a single block.
//
// BlockKey is the block's key in the source's own namespace; the caller
// maps it into the structure's addressing before the transform (the two
// namespaces are equivalent here, both canonical strings).
type Record struct {
	// BlockKey identifies the block this record belongs to.
	BlockKey string

	// Completion is the fraction completed, in [0.0, 1.0].
	Completion float64

	// Modified orders records in time; the greatest Modified among
	// fully complete records selects the resume block.
	Modified time.Time
}

// Source fetches the completion records in view for one user and one
// content scope.
//
// Implementations can be backed by memory (MemSource), SQLite
// (SQLiteSource), or MySQL (MySQLSource). An empty result is not an
// error; fetch failures must be returned, never swallowed, since
// partial completion data would silently misreport progress.
type Source interface {
	// Fetch returns every record for the user within the scope,
	// ordered by Modified ascending. Ties on Modified are broken by
	// the source's storage order, later entries winning.
	Fetch(ctx context.Context, user, scope string) ([]Record, error)
}
