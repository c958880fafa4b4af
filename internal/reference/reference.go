// Package reference exposes the read-only catalogs of domain-valid values
// that random-assignment remediation draws from.
package reference

import "context"

// Reference catalog identifiers used by the rule catalog.
const (
	CatalogHobby      = "hobby"
	CatalogAspiration = "aspiration"
)

// Entry is one valid value: the stored ID and its display name.
type Entry struct {
	ID   string
	Name string
}

// Catalog returns the current valid entries for a reference ID. An unknown
// reference or an empty catalog yields an empty slice, not an error; the
// engine records per-record failures when it finds nothing to draw from.
type Catalog interface {
	Values(ctx context.Context, referenceID string) ([]Entry, error)
}
