// Package lock provides the single-flight guard that keeps remediation and
// rollback mutually exclusive. Memory and Redis implementations share one
// interface so tests run free of external services.
package lock

import "context"

// Lock is a non-blocking mutual exclusion guard. TryAcquire returns a release
// function on success and sentinel.ErrBusy when the lock is already held;
// callers never wait.
type Lock interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}
