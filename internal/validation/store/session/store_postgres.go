package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/validation/models"
	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
	"github.com/nirvagold/DapoMaster/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists remediation sessions. Per-rule outcomes are kept as a
// jsonb document on the session row; they are read back whole, never queried.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) executor(ctx context.Context) dbExecutor {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

func (s *PostgresStore) Persist(ctx context.Context, session models.Session) error {
	outcomes, err := json.Marshal(session.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}
	const q = `
		INSERT INTO validation_sessions
			(session_id, actor_id, status, snapshot_id, total_processed, success_count, error_count, outcomes, message, started_at, rolled_back_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			status = EXCLUDED.status,
			snapshot_id = EXCLUDED.snapshot_id,
			total_processed = EXCLUDED.total_processed,
			success_count = EXCLUDED.success_count,
			error_count = EXCLUDED.error_count,
			outcomes = EXCLUDED.outcomes,
			message = EXCLUDED.message,
			rolled_back_at = EXCLUDED.rolled_back_at`
	_, err = s.executor(ctx).ExecContext(ctx, q,
		session.ID, session.ActorID, session.Status, session.SnapshotID,
		session.TotalProcessed, session.SuccessCount, session.ErrorCount,
		outcomes, session.Message, session.StartedAt, session.RolledBackAt)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID uuid.UUID) (models.Session, error) {
	const q = `
		SELECT session_id, actor_id, status, snapshot_id, total_processed, success_count, error_count, outcomes, message, started_at, rolled_back_at
		FROM validation_sessions
		WHERE session_id = $1`
	session, err := scanSession(s.executor(ctx).QueryRowContext(ctx, q, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, sentinel.ErrNotFound
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Session, error) {
	const q = `
		SELECT session_id, actor_id, status, snapshot_id, total_processed, success_count, error_count, outcomes, message, started_at, rolled_back_at
		FROM validation_sessions
		ORDER BY started_at DESC`
	rows, err := s.executor(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.executor(ctx).ExecContext(ctx,
		`DELETE FROM validation_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.Session, error) {
	var (
		session  models.Session
		outcomes []byte
	)
	err := row.Scan(&session.ID, &session.ActorID, &session.Status, &session.SnapshotID,
		&session.TotalProcessed, &session.SuccessCount, &session.ErrorCount,
		&outcomes, &session.Message, &session.StartedAt, &session.RolledBackAt)
	if err != nil {
		return models.Session{}, err
	}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &session.Outcomes); err != nil {
			return models.Session{}, fmt.Errorf("unmarshal outcomes: %w", err)
		}
	}
	return session, nil
}
