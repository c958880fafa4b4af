package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in validation_snapshots and
// validation_snapshot_rows. Metadata and rows are written in one transaction
// so a snapshot is either fully durable or absent.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, snap models.Snapshot, rows []models.SnapshotRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO validation_snapshots (snapshot_id, source_table, created_at, row_count)
		VALUES ($1, $2, $3, $4)
	`, snap.ID, snap.SourceTable, snap.CreatedAt, snap.RowCount)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO validation_snapshot_rows (snapshot_id, record_id, field, value)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare snapshot rows: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, snap.ID, row.RecordID, string(row.Field), row.Value); err != nil {
			return fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, snapshotID uuid.UUID) (models.Snapshot, error) {
	var snap models.Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, source_table, created_at, row_count
		FROM validation_snapshots
		WHERE snapshot_id = $1
	`, snapshotID).Scan(&snap.ID, &snap.SourceTable, &snap.CreatedAt, &snap.RowCount)
	if err == sql.ErrNoRows {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) Rows(ctx context.Context, snapshotID uuid.UUID) ([]models.SnapshotRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, field, value
		FROM validation_snapshot_rows
		WHERE snapshot_id = $1
		ORDER BY record_id, field
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot rows: %w", err)
	}
	defer rows.Close()

	var out []models.SnapshotRow
	for rows.Next() {
		var (
			row   models.SnapshotRow
			field string
		)
		if err := rows.Scan(&row.RecordID, &field, &row.Value); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		row.Field = students.Field(field)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, snapshotID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM validation_snapshot_rows WHERE snapshot_id = $1`, snapshotID); err != nil {
		return fmt.Errorf("delete snapshot rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM validation_snapshots WHERE snapshot_id = $1`, snapshotID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return tx.Commit()
}
