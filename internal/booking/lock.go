package booking

import (
    "context"
    "sync"
    "time"
)

// ShowLocks hands out one mutex per show so that the check-then-commit
// sequence of a reservation is serialized per show while different
// shows proceed in parallel.  Each lock is a buffered channel used as a
// binary semaphore, which lets acquisition respect contexts and
// deadlines instead of blocking indefinitely.
//
// Locks are created lazily and never removed; the per-show footprint is
// one channel, and the set of shows with concurrent booking traffic is
// small relative to the catalog.
type ShowLocks struct {
    mu    sync.Mutex
    locks map[uint64]chan struct{}
}

// NewShowLocks returns an empty lock table.
func NewShowLocks() *ShowLocks {
    return &ShowLocks{locks: make(map[uint64]chan struct{})}
}

func (s *ShowLocks) lock(showID uint64) chan struct{} {
    s.mu.Lock()
    defer s.mu.Unlock()
    l, ok := s.locks[showID]
    if !ok {
        l = make(chan struct{}, 1)
        s.locks[showID] = l
    }
    return l
}

// Acquire takes the lock for a show, waiting at most timeout (and no
// longer than the context allows).  It returns a release function on
// success and ErrShowBusy when the wait expired, so a contended show
// produces backpressure instead of a pile-up of blocked requests.
func (s *ShowLocks) Acquire(ctx context.Context, showID uint64, timeout time.Duration) (func(), error) {
    l := s.lock(showID)
    timer := time.NewTimer(timeout)
    defer timer.Stop()
    select {
    case l <- struct{}{}:
        return func() { <-l }, nil
    case <-timer.C:
        return nil, ErrShowBusy
    case <-ctx.Done():
        return nil, ErrShowBusy
    }
}
