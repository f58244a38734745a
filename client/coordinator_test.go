package client_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/smartbill-auth/client"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// gatedRefresh blocks every refresh until release is closed
type gatedRefresh struct {
	calls   atomic.Int32
	commits atomic.Int32
	release chan struct{}
	err     error
}

func newGatedRefresh(err error) *gatedRefresh {
	return &gatedRefresh{release: make(chan struct{}), err: err}
}

func (g *gatedRefresh) refresh(ctx context.Context) (func() error, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		if g.err != nil {
			return nil, g.err
		}
		return g.commit, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedRefresh) commit() error {
	g.commits.Add(1)
	return nil
}

func refreshConcurrently(t *testing.T, c *client.Coordinator, n int, release func()) []error {
	t.Helper()
	seen := c.Generation()

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Refresh(context.Background(), seen)
		}(i)
	}

	require.Eventually(t, func() bool { return c.Pending() == n }, time.Second, time.Millisecond)
	require.Equal(t, client.StateRefreshing, c.State())
	release()
	wg.Wait()
	return errs
}

func TestCoordinator_SingleFlight(t *testing.T) {
	gate := newGatedRefresh(nil)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

	errs := refreshConcurrently(t, c, 25, func() { close(gate.release) })

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, gate.calls.Load())
	require.EqualValues(t, 1, gate.commits.Load())
	require.EqualValues(t, 0, teardowns.Load())
	require.Equal(t, uint64(1), c.Generation())
	require.Equal(t, client.StateIdle, c.State())
	require.Equal(t, client.OutcomeSuccess, c.Outcome())
}

func TestCoordinator_FailureFansOut(t *testing.T) {
	gate := newGatedRefresh(errors.ErrRefreshExpiredOrInvalid)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

	errs := refreshConcurrently(t, c, 10, func() { close(gate.release) })

	for _, err := range errs {
		require.ErrorIs(t, err, errors.ErrAuthenticationFailed)
		require.ErrorIs(t, err, errors.ErrRefreshExpiredOrInvalid)
	}
	require.EqualValues(t, 1, gate.calls.Load())
	require.EqualValues(t, 1, teardowns.Load())
	require.Equal(t, client.OutcomeFailure, c.Outcome())
}

func TestCoordinator_StaleGeneration(t *testing.T) {
	t.Run("after success", func(t *testing.T) {
		gate := newGatedRefresh(nil)
		close(gate.release)
		c := client.NewCoordinator(gate.refresh, nil, time.Second, zerolog.Nop())

		require.NoError(t, c.Refresh(context.Background(), 0))
		// a request that saw generation 0 needs no second refresh
		require.NoError(t, c.Refresh(context.Background(), 0))
		require.EqualValues(t, 1, gate.calls.Load())

		// a later 401 with the current generation refreshes again
		require.NoError(t, c.Refresh(context.Background(), c.Generation()))
		require.EqualValues(t, 2, gate.calls.Load())
	})

	t.Run("after failure until reset", func(t *testing.T) {
		gate := newGatedRefresh(errors.ErrNetwork)
		close(gate.release)
		var teardowns atomic.Int32
		c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

		require.ErrorIs(t, c.Refresh(context.Background(), 0), errors.ErrAuthenticationFailed)
		require.ErrorIs(t, c.Refresh(context.Background(), 0), errors.ErrAuthenticationFailed)
		require.EqualValues(t, 1, gate.calls.Load())
		require.EqualValues(t, 1, teardowns.Load())
		// no further refresh until a new login
		require.ErrorIs(t, c.Refresh(context.Background(), c.Generation()), errors.ErrAuthenticationFailed)
		require.EqualValues(t, 1, gate.calls.Load())

		c.Reset()
		require.Equal(t, client.OutcomeNone, c.Outcome())
		require.Error(t, c.Refresh(context.Background(), c.Generation()))
		require.EqualValues(t, 2, gate.calls.Load())
	})
}

func TestCoordinator_Timeout(t *testing.T) {
	gate := newGatedRefresh(nil)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, 20*time.Millisecond, zerolog.Nop())

	err := c.Refresh(context.Background(), 0)
	require.ErrorIs(t, err, errors.ErrAuthenticationFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 1, teardowns.Load())
}

func TestCoordinator_CallerContext(t *testing.T) {
	gate := newGatedRefresh(nil)
	c := client.NewCoordinator(gate.refresh, nil, time.Second, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Refresh(ctx, 0), context.DeadlineExceeded)

	// the shared refresh is still running and settles for everyone else
	require.Equal(t, client.StateRefreshing, c.State())
	close(gate.release)
	require.Eventually(t, func() bool { return c.Outcome() == client.OutcomeSuccess }, time.Second, time.Millisecond)
	require.EqualValues(t, 1, gate.calls.Load())
}

func TestCoordinator_Fail(t *testing.T) {
	gate := newGatedRefresh(nil)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

	seen := c.Generation()
	c.Fail()
	require.EqualValues(t, 1, teardowns.Load())
	require.ErrorIs(t, c.Refresh(context.Background(), seen), errors.ErrAuthenticationFailed)
	require.EqualValues(t, 0, gate.calls.Load())
}

func TestCoordinator_FailDuringRefresh(t *testing.T) {
	gate := newGatedRefresh(nil)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

	errs := refreshConcurrently(t, c, 3, func() {
		// a replay from an earlier cycle was rejected while this refresh ran
		c.Fail()
		close(gate.release)
	})

	for _, err := range errs {
		require.ErrorIs(t, err, errors.ErrAuthenticationFailed)
	}
	require.EqualValues(t, 1, gate.calls.Load())
	require.EqualValues(t, 0, gate.commits.Load())
	require.EqualValues(t, 1, teardowns.Load())
	require.Equal(t, client.OutcomeFailure, c.Outcome())
	require.Equal(t, client.StateIdle, c.State())
	require.ErrorIs(t, c.Refresh(context.Background(), c.Generation()), errors.ErrAuthenticationFailed)
}

func TestCoordinator_ResetDuringRefresh(t *testing.T) {
	gate := newGatedRefresh(nil)
	var teardowns atomic.Int32
	c := client.NewCoordinator(gate.refresh, func() { teardowns.Add(1) }, time.Second, zerolog.Nop())

	errs := refreshConcurrently(t, c, 2, func() {
		// a new login finished before the old session's refresh
		c.Reset()
		close(gate.release)
	})

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 0, gate.commits.Load())
	require.EqualValues(t, 0, teardowns.Load())
	require.Equal(t, client.OutcomeNone, c.Outcome())
}
