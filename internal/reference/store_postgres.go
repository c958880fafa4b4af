package reference

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCatalog reads the upstream ref.* tables. The -1 placeholder row
// means "not filled in" and is never a valid assignment target.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

var catalogQueries = map[string]string{
	CatalogHobby:      `SELECT id_hobby, nm_hobby FROM ref.jenis_hobby WHERE id_hobby != -1 ORDER BY id_hobby`,
	CatalogAspiration: `SELECT id_cita, nm_cita FROM ref.jenis_cita WHERE id_cita != -1 ORDER BY id_cita`,
}

func (c *PostgresCatalog) Values(ctx context.Context, referenceID string) ([]Entry, error) {
	query, ok := catalogQueries[referenceID]
	if !ok {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reference %s: %w", referenceID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Name); err != nil {
			return nil, fmt.Errorf("scan reference %s: %w", referenceID, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference %s: %w", referenceID, err)
	}
	return out, nil
}
