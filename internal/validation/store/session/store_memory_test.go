package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
}

func (s *SessionStoreSuite) newSession(start time.Time) models.Session {
	return models.Session{
		ID:        uuid.New(),
		StartedAt: start,
		ActorID:   "operator-1",
		Status:    models.SessionCompleted,
	}
}

func (s *SessionStoreSuite) TestPersistAndGet() {
	s.Run("round-trips a session", func() {
		session := s.newSession(time.Now())
		session.Outcomes = []models.Outcome{{Field: "nik_ayah", Succeeded: true}}
		s.Require().NoError(s.store.Persist(s.ctx, session))

		got, err := s.store.Get(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(session.ID, got.ID)
		s.Len(got.Outcomes, 1)
	})

	s.Run("persist is an upsert", func() {
		session := s.newSession(time.Now())
		s.Require().NoError(s.store.Persist(s.ctx, session))

		now := time.Now().UTC()
		session.RolledBackAt = &now
		s.Require().NoError(s.store.Persist(s.ctx, session))

		got, err := s.store.Get(s.ctx, session.ID)
		s.Require().NoError(err)
		s.NotNil(got.RolledBackAt)
	})

	s.Run("unknown session returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestList() {
	s.Run("orders newest first", func() {
		older := s.newSession(time.Now().Add(-time.Hour))
		newer := s.newSession(time.Now())
		s.Require().NoError(s.store.Persist(s.ctx, older))
		s.Require().NoError(s.store.Persist(s.ctx, newer))

		listed, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(listed, 2)
		s.Equal(newer.ID, listed[0].ID)
		s.Equal(older.ID, listed[1].ID)
	})
}

func (s *SessionStoreSuite) TestDelete() {
	s.Run("removes the session", func() {
		session := s.newSession(time.Now())
		s.Require().NoError(s.store.Persist(s.ctx, session))
		s.Require().NoError(s.store.Delete(s.ctx, session.ID))

		_, err := s.store.Get(s.ctx, session.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestFailNextPersists() {
	s.Run("fails the configured number of calls then recovers", func() {
		s.store.FailNextPersists(1)
		err := s.store.Persist(s.ctx, s.newSession(time.Now()))
		s.Require().ErrorIs(err, sentinel.ErrUnavailable)

		s.Require().NoError(s.store.Persist(s.ctx, s.newSession(time.Now())))
	})
}
