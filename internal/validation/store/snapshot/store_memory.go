package snapshot

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots in process memory. Unit tests and the demo
// wiring use it; the postgres store is the durable implementation.
type InMemoryStore struct {
	mu    sync.RWMutex
	metas map[uuid.UUID]models.Snapshot
	rows  map[uuid.UUID][]models.SnapshotRow
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		metas: make(map[uuid.UUID]models.Snapshot),
		rows:  make(map[uuid.UUID][]models.SnapshotRow),
	}
}

func (s *InMemoryStore) Create(_ context.Context, snap models.Snapshot, rows []models.SnapshotRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.metas[snap.ID]; exists {
		return sentinel.ErrConflict
	}
	s.metas[snap.ID] = snap
	s.rows[snap.ID] = append([]models.SnapshotRow{}, rows...)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, snapshotID uuid.UUID) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.metas[snapshotID]
	if !ok {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return snap, nil
}

func (s *InMemoryStore) Rows(_ context.Context, snapshotID uuid.UUID) ([]models.SnapshotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.rows[snapshotID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]models.SnapshotRow{}, rows...), nil
}

func (s *InMemoryStore) Delete(_ context.Context, snapshotID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.metas, snapshotID)
	delete(s.rows, snapshotID)
	return nil
}
