package handler

import (
	"github.com/nirvagold/DapoMaster/internal/validation/models"
)

// SessionSummary is the list-view projection of a session; full outcomes are
// only returned by the fix endpoint itself.
type SessionSummary struct {
	SessionID      string  `json:"session_id"`
	StartedAt      string  `json:"started_at"`
	ActorID        string  `json:"actor_id"`
	Status         string  `json:"status"`
	TotalProcessed int     `json:"total_processed"`
	SuccessCount   int     `json:"success_count"`
	ErrorCount     int     `json:"error_count"`
	SnapshotID     string  `json:"snapshot_id"`
	Message        string  `json:"message,omitempty"`
	RolledBackAt   *string `json:"rolled_back_at,omitempty"`
}

func toSummary(s models.Session) SessionSummary {
	summary := SessionSummary{
		SessionID:      s.ID.String(),
		StartedAt:      s.StartedAt.Format(timeFormat),
		ActorID:        s.ActorID,
		Status:         string(s.Status),
		TotalProcessed: s.TotalProcessed,
		SuccessCount:   s.SuccessCount,
		ErrorCount:     s.ErrorCount,
		SnapshotID:     s.SnapshotID.String(),
		Message:        s.Message,
	}
	if s.RolledBackAt != nil {
		t := s.RolledBackAt.Format(timeFormat)
		summary.RolledBackAt = &t
	}
	return summary
}

// CleanupResponse reports how many sessions retention cleanup removed.
type CleanupResponse struct {
	Purged int `json:"purged"`
}
