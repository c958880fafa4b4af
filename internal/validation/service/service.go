// Package service implements the validation engine: advisory scans, the
// snapshot-first remediation run, rollback, and session retention.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/nirvagold/DapoMaster/internal/audit"
	"github.com/nirvagold/DapoMaster/internal/platform/metrics"
	"github.com/nirvagold/DapoMaster/internal/reference"
	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/lock"
	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/internal/validation/rules"
	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
	"github.com/nirvagold/DapoMaster/pkg/platform/tx"
	"github.com/nirvagold/DapoMaster/pkg/requestcontext"
)

// SessionStore persists remediation sessions. Persist is an upsert: the same
// call writes new sessions and stamps rollbacks.
type SessionStore interface {
	Persist(ctx context.Context, session models.Session) error
	Get(ctx context.Context, sessionID uuid.UUID) (models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// Snapshots is the snapshot manager seam.
type Snapshots interface {
	Create(ctx context.Context, scope []students.Field) (models.Snapshot, error)
	Restore(ctx context.Context, snapshotID uuid.UUID, actorID string) (models.RestoreResult, error)
	Delete(ctx context.Context, snapshotID uuid.UUID) error
}

// RNG is the randomness source for random-assignment rules. Injectable so
// tests can pin the draw.
type RNG interface {
	Intn(n int) int
}

type defaultRNG struct{}

func (defaultRNG) Intn(n int) int { return rand.IntN(n) }

// Service is the validation engine. All mutating operations run under a
// single-flight lock; scans are advisory and lock-free.
type Service struct {
	records   students.Store
	refs      reference.Catalog
	sessions  SessionStore
	snapshots Snapshots
	guard     lock.Lock

	rng       RNG
	runner    tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher audit.Publisher
	tracer    trace.Tracer

	scanGroup singleflight.Group
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithRNG replaces the randomness source.
func WithRNG(rng RNG) Option {
	return func(s *Service) { s.rng = rng }
}

// WithTxRunner sets the atomic-unit runner used for rollback, so restore and
// the rolled-back stamp commit together. Defaults to a passthrough for
// in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) { s.runner = runner }
}

// New constructs the engine.
func New(records students.Store, refs reference.Catalog, sessions SessionStore, snapshots Snapshots, guard lock.Lock, opts ...Option) *Service {
	s := &Service{
		records:   records,
		refs:      refs,
		sessions:  sessions,
		snapshots: snapshots,
		guard:     guard,
		rng:       defaultRNG{},
		runner:    tx.Passthrough{},
		logger:    slog.Default(),
		publisher: audit.Nop{},
		tracer:    otel.Tracer("dapomaster/validation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan counts rule violations across the active population. Read-only and
// side-effect free; concurrent callers share one pass over the records.
func (s *Service) Scan(ctx context.Context) (models.ValidationStats, error) {
	result, err, _ := s.scanGroup.Do("scan", func() (any, error) {
		return s.scan(ctx)
	})
	if err != nil {
		return models.ValidationStats{}, err
	}
	return result.(models.ValidationStats), nil
}

func (s *Service) scan(ctx context.Context) (models.ValidationStats, error) {
	ctx, span := s.tracer.Start(ctx, "validation.scan")
	defer span.End()

	records, err := s.records.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		return models.ValidationStats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read student records")
	}

	stats := models.ValidationStats{TotalStudents: len(records)}
	for _, rule := range rules.Catalog() {
		count := 0
		for i := range records {
			if rule.Invalid(records[i].FieldValue(rule.Field)) {
				count++
			}
		}
		stats.Rules = append(stats.Rules, models.RuleStats{
			RuleID:    rule.ID,
			FieldName: string(rule.Field),
			Count:     count,
		})
	}

	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
	}
	span.SetAttributes(
		attribute.Int("students.total", stats.TotalStudents),
		attribute.Int("violations.total", stats.TotalViolations()),
	)
	return stats, nil
}

// Remediate runs the full fix pass as the given actor: snapshot first, then
// every mutating rule in catalog order over every active record. Returns the
// persisted session.
func (s *Service) Remediate(ctx context.Context, actorID string) (models.Session, error) {
	ctx, span := s.tracer.Start(ctx, "validation.remediate")
	defer span.End()

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return models.Session{}, dErrors.New(dErrors.CodeValidation, "actor id is required")
	}

	release, err := s.guard.TryAcquire(ctx)
	if err != nil {
		return models.Session{}, s.busy(err)
	}
	defer release()

	now := requestcontext.Now(ctx).UTC()
	session := models.Session{
		ID:        uuid.New(),
		StartedAt: now,
		ActorID:   actorID,
		Status:    models.SessionRunning,
	}
	span.SetAttributes(attribute.String("session.id", session.ID.String()))

	snap, err := s.snapshots.Create(ctx, rules.MutationScope())
	if err != nil {
		span.RecordError(err)
		session.Status = models.SessionFailed
		session.Message = "remediation aborted: snapshot capture failed"
		if persistErr := s.sessions.Persist(ctx, session); persistErr != nil {
			s.logger.ErrorContext(ctx, "failed to persist aborted session",
				"session_id", session.ID, "error", persistErr)
		}
		s.metrics.ObserveRun("failed")
		s.emit(ctx, audit.EventRunFailed, session, err.Error())
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "remediation aborted: snapshot capture failed")
	}
	session.SnapshotID = snap.ID

	records, err := s.records.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		session.Status = models.SessionFailed
		session.Message = "remediation aborted: failed to read student records"
		if persistErr := s.sessions.Persist(ctx, session); persistErr != nil {
			s.logger.ErrorContext(ctx, "failed to persist aborted session",
				"session_id", session.ID, "error", persistErr)
		}
		s.metrics.ObserveRun("failed")
		s.emit(ctx, audit.EventRunFailed, session, err.Error())
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read student records")
	}

	s.emit(ctx, audit.EventRunStarted, session, "")

	var summary []string
	for _, rule := range rules.Catalog() {
		if !rule.Mutates() {
			continue
		}
		fixed, failed := s.applyRule(ctx, rule, records, &session)
		if fixed+failed == 0 {
			continue
		}
		if failed == 0 {
			summary = append(summary, fmt.Sprintf("%s: %d fixed", rule.ID, fixed))
		} else {
			summary = append(summary, fmt.Sprintf("%s: %d fixed, %d failed", rule.ID, fixed, failed))
		}
	}
	session.Message = strings.Join(summary, "; ")

	session.Status = models.SessionCompleted
	if err := session.CheckCounts(); err != nil {
		// Counts are derived in one place; a mismatch is a bug, not data.
		return models.Session{}, err
	}
	if err := s.sessions.Persist(ctx, session); err != nil {
		span.RecordError(err)
		// The mutations are already applied; a run with no audit trail is
		// worse than one marked failed, so try once more with that status.
		failed := session
		failed.Status = models.SessionFailed
		if failed.Message != "" {
			failed.Message += "; "
		}
		failed.Message += "completed status could not be persisted"
		if persistErr := s.sessions.Persist(ctx, failed); persistErr != nil {
			s.logger.ErrorContext(ctx, "failed to persist failed session",
				"session_id", session.ID, "error", persistErr)
		}
		s.metrics.ObserveRun("failed")
		s.emit(ctx, audit.EventRunFailed, session, err.Error())
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}

	s.metrics.ObserveRun("completed")
	s.emit(ctx, audit.EventRunCompleted, session, "")
	s.logger.InfoContext(ctx, "remediation completed",
		"session_id", session.ID,
		"actor_id", session.ActorID,
		"total_processed", session.TotalProcessed,
		"success_count", session.SuccessCount,
		"error_count", session.ErrorCount,
	)
	span.SetAttributes(
		attribute.Int("outcomes.total", session.TotalProcessed),
		attribute.Int("outcomes.failed", session.ErrorCount),
	)
	return session, nil
}

// applyRule fixes every record violating one rule, appending outcomes and
// updating the session counters in place. Returns the fixed and failed
// tallies for the run summary.
func (s *Service) applyRule(ctx context.Context, rule rules.Rule, records []students.Student, session *models.Session) (fixed, failed int) {
	var (
		refValues []reference.Entry
		refErr    error
	)
	if rule.Strategy == models.StrategyRandomAssign {
		refValues, refErr = s.refs.Values(ctx, rule.ReferenceID)
		if refErr != nil {
			s.logger.ErrorContext(ctx, "failed to load reference values",
				"rule_id", rule.ID, "reference_id", rule.ReferenceID, "error", refErr)
		}
	}

	for i := range records {
		record := &records[i]
		oldValue := record.FieldValue(rule.Field)
		if !rule.Invalid(oldValue) {
			continue
		}

		outcome := models.Outcome{
			RecordID:    record.ID,
			DisplayName: record.Name,
			Field:       string(rule.Field),
			Strategy:    rule.Strategy,
			OldValue:    copyValue(oldValue),
		}

		var newValue *string
		switch rule.Strategy {
		case models.StrategyNullify:
			newValue = nil
		case models.StrategyRandomAssign:
			switch {
			case refErr != nil:
				outcome.Message = "failed to load reference values"
			case len(refValues) == 0:
				outcome.Message = "no reference values available"
			default:
				picked := refValues[s.rng.Intn(len(refValues))].ID
				newValue = &picked
			}
			if outcome.Message != "" {
				s.recordOutcome(session, outcome, false)
				failed++
				continue
			}
		}

		if err := s.records.SetField(ctx, record.ID, rule.Field, newValue, session.ActorID); err != nil {
			outcome.Message = fmt.Sprintf("write failed: %v", err)
			s.recordOutcome(session, outcome, false)
			failed++
			continue
		}
		record.SetFieldValue(rule.Field, copyValue(newValue))
		outcome.NewValue = copyValue(newValue)
		s.recordOutcome(session, outcome, true)
		fixed++
	}
	return fixed, failed
}

func (s *Service) recordOutcome(session *models.Session, outcome models.Outcome, succeeded bool) {
	outcome.Succeeded = succeeded
	session.Outcomes = append(session.Outcomes, outcome)
	session.TotalProcessed++
	if succeeded {
		session.SuccessCount++
		s.metrics.ObserveOutcome("success")
	} else {
		session.ErrorCount++
		s.metrics.ObserveOutcome("error")
	}
}

// Rollback restores the snapshot behind one completed session and stamps the
// session rolled back. A session can be rolled back exactly once.
func (s *Service) Rollback(ctx context.Context, sessionID uuid.UUID) (models.RollbackReport, error) {
	ctx, span := s.tracer.Start(ctx, "validation.rollback",
		trace.WithAttributes(attribute.String("session.id", sessionID.String())))
	defer span.End()

	release, err := s.guard.TryAcquire(ctx)
	if err != nil {
		return models.RollbackReport{}, s.busy(err)
	}
	defer release()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.RollbackReport{}, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return models.RollbackReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.RolledBackAt != nil {
		return models.RollbackReport{}, dErrors.New(dErrors.CodeConflict, "session has already been rolled back")
	}
	if session.Status != models.SessionCompleted {
		return models.RollbackReport{}, dErrors.New(dErrors.CodeInvalidState, "only completed sessions can be rolled back")
	}

	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		actorID = session.ActorID
	}

	now := requestcontext.Now(ctx).UTC()

	// Restore and the rolled-back stamp commit as one unit: a partial
	// restore must never be left behind, and a restored snapshot must never
	// stay replayable.
	var result models.RestoreResult
	err = s.runner.RunAtomic(ctx, func(ctx context.Context) error {
		var restoreErr error
		result, restoreErr = s.snapshots.Restore(ctx, session.SnapshotID, actorID)
		if restoreErr != nil {
			if errors.Is(restoreErr, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "snapshot no longer exists")
			}
			return dErrors.Wrap(restoreErr, dErrors.CodeInternal, "failed to restore snapshot")
		}
		session.RolledBackAt = &now
		if persistErr := s.sessions.Persist(ctx, session); persistErr != nil {
			return dErrors.Wrap(persistErr, dErrors.CodeInternal, "failed to mark session rolled back")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		var de *dErrors.Error
		if !errors.As(err, &de) {
			return models.RollbackReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "rollback aborted")
		}
		return models.RollbackReport{}, err
	}

	if s.metrics != nil {
		s.metrics.RollbacksTotal.Inc()
	}
	s.emit(ctx, audit.EventRolledBack, session, "")
	s.logger.InfoContext(ctx, "session rolled back",
		"session_id", session.ID,
		"snapshot_id", session.SnapshotID,
		"rows_restored", result.RowsRestored,
		"conflicts", len(result.ConflictIDs),
	)

	return models.RollbackReport{
		SessionID:    session.ID,
		SnapshotID:   session.SnapshotID,
		RowsRestored: result.RowsRestored,
		ConflictIDs:  result.ConflictIDs,
		RolledBackAt: now,
	}, nil
}

// ListSessions returns the session history, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	return sessions, nil
}

// Cleanup deletes terminal sessions that started before now-retention, along
// with their snapshots. Running sessions are never touched. Returns the
// number of sessions purged.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	ctx, span := s.tracer.Start(ctx, "validation.cleanup")
	defer span.End()

	if retention < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "retention must not be negative")
	}

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}

	cutoff := requestcontext.Now(ctx).UTC().Add(-retention)
	purged := 0
	for _, session := range sessions {
		if !session.Terminal() || !session.StartedAt.Before(cutoff) {
			continue
		}
		if session.SnapshotID != uuid.Nil {
			if err := s.snapshots.Delete(ctx, session.SnapshotID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return purged, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete snapshot")
			}
		}
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return purged, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
		}
		purged++
	}

	if purged > 0 {
		if s.metrics != nil {
			s.metrics.SessionsPurgedTotal.Add(float64(purged))
		}
		s.emit(ctx, audit.EventSessionsPurged, models.Session{}, fmt.Sprintf("purged %d sessions", purged))
		s.logger.InfoContext(ctx, "sessions purged", "count", purged, "retention", retention)
	}
	span.SetAttributes(attribute.Int("sessions.purged", purged))
	return purged, nil
}

func (s *Service) busy(err error) error {
	if errors.Is(err, sentinel.ErrBusy) {
		if s.metrics != nil {
			s.metrics.EngineBusyRejections.Inc()
		}
		return dErrors.New(dErrors.CodeBusy, "another remediation operation is in progress")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire engine lock")
}

func (s *Service) emit(ctx context.Context, eventType string, session models.Session, detail string) {
	s.publisher.Publish(ctx, audit.Event{
		Type:       eventType,
		SessionID:  session.ID,
		ActorID:    session.ActorID,
		OccurredAt: requestcontext.Now(ctx).UTC(),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		Detail:     detail,
	})
}

func copyValue(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
