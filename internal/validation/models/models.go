package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/students"
	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
)

// Strategy is the corrective action a rule applies to an invalid value.
type Strategy string

const (
	// StrategyNullify clears the offending value.
	StrategyNullify Strategy = "nullify"
	// StrategyRandomAssign draws a replacement uniformly at random from a
	// reference catalog.
	StrategyRandomAssign Strategy = "random_assign"
	// StrategyFlagOnly detects and reports but never mutates; these rules
	// appear in stats and are left for manual review.
	StrategyFlagOnly Strategy = "flag_only"
)

// SessionStatus is the lifecycle state of a remediation run.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Outcome is the persisted result of one remediation attempt on one
// (record, field) pair. Immutable once written.
type Outcome struct {
	RecordID    uuid.UUID `json:"record_id"`
	DisplayName string    `json:"display_name"`
	Field       string    `json:"field"`
	Strategy    Strategy  `json:"strategy_applied"`
	Succeeded   bool      `json:"succeeded"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	Message     string    `json:"message"`
}

// Session is the audit record of one remediation run, linking its outcomes
// and its snapshot.
//
// Invariants:
//   - TotalProcessed == len(Outcomes)
//   - SuccessCount + ErrorCount == TotalProcessed
//   - A Completed/Failed session is immutable, except for the one-shot
//     RolledBackAt stamp set by Rollback.
type Session struct {
	ID             uuid.UUID     `json:"session_id"`
	StartedAt      time.Time     `json:"started_at"`
	ActorID        string        `json:"actor_id"`
	Status         SessionStatus `json:"status"`
	TotalProcessed int           `json:"total_processed"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	Outcomes       []Outcome     `json:"outcomes"`
	SnapshotID     uuid.UUID     `json:"snapshot_id"`
	Message        string        `json:"message"`
	RolledBackAt   *time.Time    `json:"rolled_back_at,omitempty"`
}

// Terminal reports whether the session reached a final status.
func (s *Session) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionFailed
}

// CheckCounts verifies the count invariants against the outcome list.
func (s *Session) CheckCounts() error {
	if s.TotalProcessed != len(s.Outcomes) {
		return dErrors.New(dErrors.CodeInvariantViolation, "total_processed must equal outcome count")
	}
	if s.SuccessCount+s.ErrorCount != s.TotalProcessed {
		return dErrors.New(dErrors.CodeInvariantViolation, "success_count + error_count must equal total_processed")
	}
	return nil
}

// Snapshot is the metadata for a restorable point-in-time copy of the
// affected rows, taken immediately before mutation.
type Snapshot struct {
	ID          uuid.UUID `json:"snapshot_id"`
	SourceTable string    `json:"source_table"`
	CreatedAt   time.Time `json:"created_at"`
	RowCount    int       `json:"row_count"`
}

// SnapshotRow is one captured (record, field, value) triple.
type SnapshotRow struct {
	RecordID uuid.UUID
	Field    students.Field
	Value    *string
}

// RestoreResult summarizes a snapshot restoration. Restoration is
// partial-success: rows whose records were hard-deleted out of band are
// reported in ConflictIDs, not fatal.
type RestoreResult struct {
	RowsRestored int
	ConflictIDs  []uuid.UUID
}

// RollbackReport is returned to the caller of Rollback.
type RollbackReport struct {
	SessionID    uuid.UUID   `json:"session_id"`
	SnapshotID   uuid.UUID   `json:"snapshot_id"`
	RowsRestored int         `json:"rows_restored"`
	ConflictIDs  []uuid.UUID `json:"conflict_ids,omitempty"`
	RolledBackAt time.Time   `json:"rolled_back_at"`
}

// RuleStats is the per-rule slice of a scan result.
type RuleStats struct {
	RuleID    string `json:"rule_id"`
	FieldName string `json:"field_name"`
	Count     int    `json:"count"`
}

// ValidationStats is the advisory scan result: violation counts per rule in
// catalog order, plus the active population size. Never persisted.
type ValidationStats struct {
	TotalStudents int         `json:"total_students"`
	Rules         []RuleStats `json:"rules"`
}

// Count returns the violation count for one rule ID, zero if absent.
func (v ValidationStats) Count(ruleID string) int {
	for _, r := range v.Rules {
		if r.RuleID == ruleID {
			return r.Count
		}
	}
	return 0
}

// TotalViolations sums all rule counts.
func (v ValidationStats) TotalViolations() int {
	total := 0
	for _, r := range v.Rules {
		total += r.Count
	}
	return total
}

// Equal compares two scan results, used by round-trip verification.
func (v ValidationStats) Equal(other ValidationStats) bool {
	if v.TotalStudents != other.TotalStudents || len(v.Rules) != len(other.Rules) {
		return false
	}
	for i := range v.Rules {
		if v.Rules[i] != other.Rules[i] {
			return false
		}
	}
	return true
}
