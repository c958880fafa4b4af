package lock

import (
	"context"
	"sync/atomic"

	"github.com/nirvagold/DapoMaster/pkg/platform/sentinel"
)

// MemoryLock guards a single process with an atomic flag. This is the default
// when no Redis URL is configured.
type MemoryLock struct {
	held atomic.Bool
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{}
}

func (l *MemoryLock) TryAcquire(_ context.Context) (func(), error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, sentinel.ErrBusy
	}
	return func() { l.held.Store(false) }, nil
}
