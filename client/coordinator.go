package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/rs/zerolog"
)

// State of a Coordinator
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

// Outcome of the most recent settled refresh
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

// RefreshFunc performs one refresh request. The returned commit stores the new
// credentials; the coordinator calls it only if the session is still the one
// the refresh started in. commit may be nil.
type RefreshFunc func(ctx context.Context) (commit func() error, err error)

// Coordinator lets at most one refresh run at a time. Callers that hit a 401
// while a refresh is running queue behind it and receive its result in FIFO order.
type Coordinator struct {
	mu         sync.Mutex
	state      State
	outcome    Outcome
	generation uint64
	// session changes on Fail and Reset. A refresh that outlives its session
	// must not commit.
	session uint64
	waiters []chan error

	refresh  RefreshFunc
	teardown func()
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewCoordinator returns an idle coordinator. teardown runs after every failed
// refresh, before waiters are released.
func NewCoordinator(refresh RefreshFunc, teardown func(), timeout time.Duration, logger zerolog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	if teardown == nil {
		teardown = func() {}
	}
	return &Coordinator{
		refresh:  refresh,
		teardown: teardown,
		timeout:  timeout,
		logger:   logger,
	}
}

// Generation changes every time a refresh settles. A caller records it before
// sending a request and hands it to Refresh after a 401.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending counts callers waiting on the running refresh
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Outcome reports how the last refresh settled
func (c *Coordinator) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Refresh waits for fresh credentials. If a refresh succeeded after seen was
// observed it returns at once. After a failure every call fails until Reset.
// ctx bounds only this caller's wait, the shared refresh keeps running.
func (c *Coordinator) Refresh(ctx context.Context, seen uint64) error {
	c.mu.Lock()
	if c.outcome == OutcomeFailure {
		// the session is over until Reset
		c.mu.Unlock()
		return fmt.Errorf("[Coordinator Refresh] %w", errors.ErrAuthenticationFailed)
	}
	if seen != c.generation {
		c.mu.Unlock()
		return nil
	}

	done := make(chan error, 1)
	c.waiters = append(c.waiters, done)
	if c.state == StateIdle {
		c.state = StateRefreshing
		go c.run(c.session)
	}
	c.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail tears the session down without a refresh, as after a 401 on a replay
func (c *Coordinator) Fail() {
	c.mu.Lock()
	c.generation++
	c.session++
	c.outcome = OutcomeFailure
	c.mu.Unlock()

	c.teardown()
}

// Reset starts a new session after a successful login
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.session++
	c.outcome = OutcomeNone
}

func (c *Coordinator) run(session uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	commit, err := c.refresh(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	cancel()

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.generation++
	c.state = StateIdle

	tornDown := false
	switch {
	case session != c.session && c.outcome == OutcomeFailure:
		// Fail already tore the session down; the outcome stays failed
		err = fmt.Errorf("[Coordinator Refresh] %w: session ended during refresh", errors.ErrAuthenticationFailed)
	case session != c.session:
		// a new login replaced the session; its credentials win
		err = nil
	default:
		if err == nil && commit != nil {
			err = commit()
		}
		if err != nil {
			c.outcome = OutcomeFailure
			err = fmt.Errorf("[Coordinator Refresh] %w: %w", errors.ErrAuthenticationFailed, err)
			tornDown = true
		} else {
			c.outcome = OutcomeSuccess
		}
	}
	c.mu.Unlock()

	switch {
	case tornDown:
		c.logger.Warn().Err(err).Int("waiters", len(waiters)).Msg("token refresh failed")
		c.teardown()
	case err != nil:
		c.logger.Debug().Err(err).Int("waiters", len(waiters)).Msg("token refresh discarded")
	default:
		c.logger.Debug().Int("waiters", len(waiters)).Msg("token refresh succeeded")
	}

	for _, w := range waiters {
		w <- err
	}
}
