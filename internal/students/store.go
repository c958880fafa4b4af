package students

import (
	"context"

	"github.com/google/uuid"
)

// Store is the record-store seam the validation engine consumes. The student
// CRUD screens own the full schema; the engine only needs scoped reads and
// attributable single-field writes.
type Store interface {
	// ListActive returns every active student (not soft-deleted, not exited)
	// in stable primary-key order so repeated runs are reproducible.
	ListActive(ctx context.Context) ([]Student, error)

	// SetField writes one logical field, stamping the actor and update time.
	// Returns sentinel.ErrNotFound if the record no longer exists.
	SetField(ctx context.Context, recordID uuid.UUID, field Field, value *string, actorID string) error
}
