package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirvagold/DapoMaster/internal/reference"
	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/lock"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/internal/validation/service"
	"github.com/nirvagold/DapoMaster/internal/validation/snapshot"
	sessionstore "github.com/nirvagold/DapoMaster/internal/validation/store/session"
	snapshotstore "github.com/nirvagold/DapoMaster/internal/validation/store/snapshot"
	"github.com/nirvagold/DapoMaster/pkg/testutil"
)

type fixture struct {
	router  chi.Router
	records *students.InMemoryStore
	refs    *reference.InMemoryCatalog
	guard   *lock.MemoryLock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	records := students.NewInMemoryStore()
	refs := reference.NewInMemoryCatalog()
	refs.SetValues(reference.CatalogHobby, []reference.Entry{{ID: "1", Name: "Olahraga"}})
	refs.SetValues(reference.CatalogAspiration, []reference.Entry{{ID: "3", Name: "Guru"}})
	guard := lock.NewMemoryLock()
	manager := snapshot.NewManager(records, snapshotstore.NewInMemoryStore(), logger)
	engine := service.New(records, refs, sessionstore.NewInMemoryStore(), manager, guard,
		service.WithLogger(logger),
	)

	router := chi.NewRouter()
	New(engine, logger, 720*time.Hour).Register(router)

	return &fixture{router: router, records: records, refs: refs, guard: guard}
}

func str(v string) *string { return &v }

func (f *fixture) seedInvalid(t *testing.T) uuid.UUID {
	t.Helper()
	record := students.Student{
		ID:        uuid.New(),
		Name:      "Budi",
		FatherNIK: str("123"),
		HobbyID:   str("1"),
	}
	// Aspiration nil triggers tanpa_cita_cita too.
	f.records.Put(record)
	return record.ID
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/validation/stats"))
	testutil.AssertStatusOK(t, rr)

	stats := testutil.UnmarshalResponse[models.ValidationStats](t, rr)
	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 1, stats.Count("nik_ayah_invalid"))
	assert.Equal(t, 1, stats.Count("tanpa_cita_cita"))
}

func TestPreflightMatchesStats(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	statsRR := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/validation/stats"))
	preflightRR := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/preflight", nil))

	testutil.AssertStatusOK(t, preflightRR)
	assert.JSONEq(t, string(testutil.ReadBody(t, statsRR)), string(testutil.ReadBody(t, preflightRR)))
}

func TestFixRequiresActor(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix", map[string]string{}))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestFixWithBodyActor(t *testing.T) {
	f := newFixture(t)
	recordID := f.seedInvalid(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix",
		map[string]string{"actor_id": "operator-1"}))
	testutil.AssertStatusOK(t, rr)

	session := testutil.UnmarshalResponse[models.Session](t, rr)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Equal(t, "operator-1", session.ActorID)
	assert.Equal(t, 2, session.TotalProcessed)

	stored, ok := f.records.Get(recordID)
	require.True(t, ok)
	assert.Nil(t, stored.FatherNIK)
}

func TestFixPrefersAuthenticatedActor(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix", map[string]string{"actor_id": "body-actor"})
	req = testutil.WithActor(req, "token-actor")

	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)

	session := testutil.UnmarshalResponse[models.Session](t, rr)
	assert.Equal(t, "token-actor", session.ActorID)
}

func TestFixWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	release, err := f.guard.TryAcquire(t.Context())
	require.NoError(t, err)
	defer release()

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix",
		map[string]string{"actor_id": "operator-1"}))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "busy")
}

func TestRollbackValidation(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/rollback",
		map[string]string{"session_id": "not-a-uuid"}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/rollback",
		map[string]string{"session_id": uuid.NewString()}))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestFixThenRollback(t *testing.T) {
	f := newFixture(t)
	recordID := f.seedInvalid(t)

	fixRR := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix",
		map[string]string{"actor_id": "operator-1"}))
	testutil.AssertStatusOK(t, fixRR)
	session := testutil.UnmarshalResponse[models.Session](t, fixRR)

	rbRR := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/rollback",
		map[string]string{"session_id": session.ID.String()}))
	testutil.AssertStatusOK(t, rbRR)

	report := testutil.UnmarshalResponse[models.RollbackReport](t, rbRR)
	assert.Equal(t, session.ID, report.SessionID)
	assert.Equal(t, 1, report.RowsRestored)

	stored, ok := f.records.Get(recordID)
	require.True(t, ok)
	require.NotNil(t, stored.FatherNIK)
	assert.Equal(t, "123", *stored.FatherNIK)

	// A second rollback of the same session conflicts.
	again := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/rollback",
		map[string]string{"session_id": session.ID.String()}))
	testutil.AssertStatusAndError(t, again, http.StatusConflict, "conflict")
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	fixRR := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix",
		map[string]string{"actor_id": "operator-1"}))
	testutil.AssertStatusOK(t, fixRR)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/validation/sessions"))
	testutil.AssertStatusOK(t, rr)

	summaries := testutil.UnmarshalResponse[[]SessionSummary](t, rr)
	require.Len(t, *summaries, 1)
	assert.Equal(t, "completed", (*summaries)[0].Status)
	assert.Equal(t, "operator-1", (*summaries)[0].ActorID)
}

func TestCleanupEndpoint(t *testing.T) {
	f := newFixture(t)
	f.seedInvalid(t)

	fixRR := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/fix",
		map[string]string{"actor_id": "operator-1"}))
	testutil.AssertStatusOK(t, fixRR)

	// Default retention keeps the fresh session.
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/sessions/cleanup", nil))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[CleanupResponse](t, rr)
	assert.Equal(t, 0, resp.Purged)

	// Negative retention is rejected.
	retention := -1
	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/validation/sessions/cleanup",
		CleanupRequest{RetentionHours: &retention}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
