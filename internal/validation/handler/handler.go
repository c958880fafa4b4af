// Package handler exposes the validation engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nirvagold/DapoMaster/internal/validation/models"
	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
	"github.com/nirvagold/DapoMaster/pkg/platform/httputil"
	"github.com/nirvagold/DapoMaster/pkg/requestcontext"
)

const timeFormat = time.RFC3339

// Service defines the engine operations the HTTP layer needs.
type Service interface {
	Scan(ctx context.Context) (models.ValidationStats, error)
	Remediate(ctx context.Context, actorID string) (models.Session, error)
	Rollback(ctx context.Context, sessionID uuid.UUID) (models.RollbackReport, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	Cleanup(ctx context.Context, retention time.Duration) (int, error)
}

// Handler wires validation endpoints to the engine.
type Handler struct {
	service          Service
	logger           *slog.Logger
	defaultRetention time.Duration
}

// New constructs a validation handler with its dependencies.
func New(service Service, logger *slog.Logger, defaultRetention time.Duration) *Handler {
	return &Handler{
		service:          service,
		logger:           logger,
		defaultRetention: defaultRetention,
	}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/validation", func(r chi.Router) {
		r.Get("/stats", h.HandleStats)
		r.Post("/preflight", h.HandlePreflight)
		r.Post("/fix", h.HandleFix)
		r.Post("/rollback", h.HandleRollback)
		r.Get("/sessions", h.HandleListSessions)
		r.Post("/sessions/cleanup", h.HandleCleanup)
	})
}

// HandleStats handles GET /validation/stats: an advisory violation scan.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Scan(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "validation scan failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandlePreflight handles POST /validation/preflight: the same scan, run
// explicitly before a fix so operators can confirm what it will touch.
func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	h.HandleStats(w, r)
}

// HandleFix handles POST /validation/fix: the full remediation run.
func (h *Handler) HandleFix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[FixRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Authenticated subject wins over the body; the body covers deployments
	// running without a token validator.
	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		actorID = req.ActorID
	}
	if actorID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "actor id is required"))
		return
	}

	session, err := h.service.Remediate(ctx, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "remediation failed",
			"request_id", requestID,
			"actor_id", actorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "remediation run finished",
		"request_id", requestID,
		"session_id", session.ID,
		"total_processed", session.TotalProcessed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleRollback handles POST /validation/rollback.
func (h *Handler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RollbackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.Rollback(ctx, req.ParsedSessionID())
	if err != nil {
		h.logger.ErrorContext(ctx, "rollback failed",
			"request_id", requestID,
			"session_id", req.SessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleListSessions handles GET /validation/sessions.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.service.ListSessions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sessions",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, toSummary(s))
	}
	httputil.WriteJSON(w, http.StatusOK, summaries)
}

// HandleCleanup handles POST /validation/sessions/cleanup.
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CleanupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	retention := h.defaultRetention
	if req.RetentionHours != nil {
		retention = time.Duration(*req.RetentionHours) * time.Hour
	}

	purged, err := h.service.Cleanup(ctx, retention)
	if err != nil {
		h.logger.ErrorContext(ctx, "session cleanup failed",
			"request_id", requestID,
			"retention", retention,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CleanupResponse{Purged: purged})
}
