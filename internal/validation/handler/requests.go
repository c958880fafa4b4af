package handler

import (
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
)

// FixRequest is the body of POST /validation/fix. ActorID is optional when
// the caller is authenticated; the token subject takes precedence.
type FixRequest struct {
	ActorID string `json:"actor_id"`
}

func (r *FixRequest) Normalize() {
	r.ActorID = strings.TrimSpace(r.ActorID)
}

// RollbackRequest is the body of POST /validation/rollback.
type RollbackRequest struct {
	SessionID string `json:"session_id"`
}

func (r *RollbackRequest) Normalize() {
	r.SessionID = strings.TrimSpace(r.SessionID)
}

func (r *RollbackRequest) Validate() error {
	if r.SessionID == "" {
		return dErrors.New(dErrors.CodeValidation, "session_id is required")
	}
	if _, err := uuid.Parse(r.SessionID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "session_id must be a valid UUID")
	}
	return nil
}

// ParsedSessionID returns the session ID; call only after Validate.
func (r *RollbackRequest) ParsedSessionID() uuid.UUID {
	return uuid.MustParse(r.SessionID)
}

// CleanupRequest is the body of POST /validation/sessions/cleanup. An absent
// RetentionHours falls back to the configured default; an explicit zero
// purges every terminal session.
type CleanupRequest struct {
	RetentionHours *int `json:"retention_hours"`
}

func (r *CleanupRequest) Validate() error {
	if r.RetentionHours != nil && *r.RetentionHours < 0 {
		return dErrors.New(dErrors.CodeValidation, "retention_hours must not be negative")
	}
	return nil
}
