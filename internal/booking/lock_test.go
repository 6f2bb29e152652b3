package booking

import (
    "context"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestShowLocksMutualExclusion(t *testing.T) {
    locks := NewShowLocks()
    const workers = 16

    var inside int32
    var wg sync.WaitGroup
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            release, err := locks.Acquire(context.Background(), 1, time.Second)
            if !assert.NoError(t, err) {
                return
            }
            n := atomic.AddInt32(&inside, 1)
            assert.EqualValues(t, 1, n, "two holders inside the critical section")
            time.Sleep(time.Millisecond)
            atomic.AddInt32(&inside, -1)
            release()
        }()
    }
    wg.Wait()
}

func TestShowLocksTimeout(t *testing.T) {
    locks := NewShowLocks()
    release, err := locks.Acquire(context.Background(), 7, time.Second)
    require.NoError(t, err)
    defer release()

    _, err = locks.Acquire(context.Background(), 7, 30*time.Millisecond)
    assert.ErrorIs(t, err, ErrShowBusy)
}

func TestShowLocksIndependentShows(t *testing.T) {
    locks := NewShowLocks()
    r1, err := locks.Acquire(context.Background(), 1, time.Second)
    require.NoError(t, err)
    defer r1()

    // A different show must not be blocked.
    r2, err := locks.Acquire(context.Background(), 2, 50*time.Millisecond)
    require.NoError(t, err)
    r2()
}

func TestShowLocksContextCancel(t *testing.T) {
    locks := NewShowLocks()
    release, err := locks.Acquire(context.Background(), 3, time.Second)
    require.NoError(t, err)
    defer release()

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    _, err = locks.Acquire(ctx, 3, time.Second)
    assert.ErrorIs(t, err, ErrShowBusy)
}
