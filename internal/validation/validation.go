// Package validation is the facade over the validation engine: scans,
// snapshot-first remediation, rollback, and session retention.
package validation

import (
	"log/slog"
	"time"

	"github.com/nirvagold/DapoMaster/internal/reference"
	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation/handler"
	"github.com/nirvagold/DapoMaster/internal/validation/lock"
	"github.com/nirvagold/DapoMaster/internal/validation/service"
	"github.com/nirvagold/DapoMaster/internal/validation/snapshot"
)

// Service is the validation engine.
type Service = service.Service

// Handler wires HTTP endpoints to the engine.
type Handler = handler.Handler

// NewService constructs the engine with required dependencies; ambient
// concerns come in through service options.
func NewService(records students.Store, refs reference.Catalog, sessions service.SessionStore, snapshots service.Snapshots, guard lock.Lock, opts ...service.Option) *Service {
	return service.New(records, refs, sessions, snapshots, guard, opts...)
}

// NewSnapshotManager constructs the snapshot manager over the record store.
func NewSnapshotManager(records students.Store, store snapshot.Store, logger *slog.Logger) *snapshot.Manager {
	return snapshot.NewManager(records, store, logger)
}

// NewHandler constructs the HTTP handler for validation routes.
func NewHandler(s *Service, logger *slog.Logger, defaultRetention time.Duration) *Handler {
	return handler.New(s, logger, defaultRetention)
}
