// Package snapshot creates and restores point-in-time copies of the record
// fields a remediation run may touch. A snapshot is taken before any write,
// so a completed run can always be reversed without a per-row undo log.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// Store persists snapshot metadata and captured rows. Pure I/O; capture and
// restore logic lives in the Manager.
type Store interface {
	Create(ctx context.Context, snap models.Snapshot, rows []models.SnapshotRow) error
	Get(ctx context.Context, snapshotID uuid.UUID) (models.Snapshot, error)
	Rows(ctx context.Context, snapshotID uuid.UUID) ([]models.SnapshotRow, error)
	Delete(ctx context.Context, snapshotID uuid.UUID) error
}

// Manager captures and restores snapshots through the record-store seam.
type Manager struct {
	records students.Store
	store   Store
	logger  *slog.Logger
}

func NewManager(records students.Store, store Store, logger *slog.Logger) *Manager {
	return &Manager{records: records, store: store, logger: logger}
}

// Create copies the current values of every active record for the given
// fields into a new durable snapshot. Any failure aborts before the caller
// mutates anything.
func (m *Manager) Create(ctx context.Context, scope []students.Field) (models.Snapshot, error) {
	records, err := m.records.ListActive(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("snapshot capture read: %w", err)
	}

	rows := make([]models.SnapshotRow, 0, len(records)*len(scope))
	for _, record := range records {
		for _, field := range scope {
			rows = append(rows, models.SnapshotRow{
				RecordID: record.ID,
				Field:    field,
				Value:    copyValue(record.FieldValue(field)),
			})
		}
	}

	snap := models.Snapshot{
		ID:          uuid.New(),
		SourceTable: "peserta_didik",
		CreatedAt:   time.Now().UTC(),
		RowCount:    len(records),
	}
	if err := m.store.Create(ctx, snap, rows); err != nil {
		return models.Snapshot{}, fmt.Errorf("snapshot allocation: %w", err)
	}

	m.logger.InfoContext(ctx, "snapshot created",
		"snapshot_id", snap.ID,
		"row_count", snap.RowCount,
		"fields", len(scope),
	)
	return snap, nil
}

// Restore writes every captured value back. Records hard-deleted out of band
// are reported as conflicts and skipped; restoration proceeds for the rest.
// Returns sentinel.ErrNotFound when the snapshot was already cleaned up.
func (m *Manager) Restore(ctx context.Context, snapshotID uuid.UUID, actorID string) (models.RestoreResult, error) {
	if _, err := m.store.Get(ctx, snapshotID); err != nil {
		return models.RestoreResult{}, err
	}
	rows, err := m.store.Rows(ctx, snapshotID)
	if err != nil {
		return models.RestoreResult{}, fmt.Errorf("snapshot rows: %w", err)
	}

	restored := make(map[uuid.UUID]bool)
	conflicts := make(map[uuid.UUID]bool)
	for _, row := range rows {
		if conflicts[row.RecordID] {
			continue
		}
		err := m.records.SetField(ctx, row.RecordID, row.Field, row.Value, actorID)
		if errors.Is(err, sentinel.ErrNotFound) {
			conflicts[row.RecordID] = true
			delete(restored, row.RecordID)
			continue
		}
		if err != nil {
			return models.RestoreResult{}, fmt.Errorf("restore %s for %s: %w", row.Field, row.RecordID, err)
		}
		restored[row.RecordID] = true
	}

	result := models.RestoreResult{RowsRestored: len(restored)}
	for id := range conflicts {
		result.ConflictIDs = append(result.ConflictIDs, id)
	}

	m.logger.InfoContext(ctx, "snapshot restored",
		"snapshot_id", snapshotID,
		"rows_restored", result.RowsRestored,
		"conflicts", len(result.ConflictIDs),
	)
	return result, nil
}

// Delete removes a snapshot and its rows. Used by retention cleanup only.
func (m *Manager) Delete(ctx context.Context, snapshotID uuid.UUID) error {
	return m.store.Delete(ctx, snapshotID)
}

func copyValue(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
