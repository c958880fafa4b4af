package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map for unit tests and the demo wiring.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session

	// failPersist makes the next Persist calls fail; tests use it to drive
	// the finalization error paths.
	failPersist int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[uuid.UUID]models.Session)}
}

// FailNextPersists makes the next n Persist calls return ErrUnavailable.
func (s *InMemoryStore) FailNextPersists(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPersist = n
}

func (s *InMemoryStore) Persist(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPersist > 0 {
		s.failPersist--
		return sentinel.ErrUnavailable
	}
	session.Outcomes = append([]models.Outcome{}, session.Outcomes...)
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID uuid.UUID) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return models.Session{}, sentinel.ErrNotFound
	}
	session.Outcomes = append([]models.Outcome{}, session.Outcomes...)
	return session, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		session.Outcomes = append([]models.Outcome{}, session.Outcomes...)
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
