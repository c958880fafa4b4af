package students

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// InMemoryStore keeps student records in a map. Used by unit tests and the
// demo wiring; the engine never notices the difference.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Student
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*Student)}
}

// Put inserts or replaces a record.
func (s *InMemoryStore) Put(record Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := record
	s.records[record.ID] = &stored
}

// Delete removes a record, simulating an out-of-band hard delete.
func (s *InMemoryStore) Delete(recordID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID)
}

// Get returns a copy of one record for test assertions.
func (s *InMemoryStore) Get(recordID uuid.UUID) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordID]
	if !ok {
		return Student{}, false
	}
	return *record, true
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) SetField(_ context.Context, recordID uuid.UUID, field Field, value *string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.SetFieldValue(field, value)
	return nil
}
