package httpclient

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries after the first attempt
	DefaultMaxRetries = 3
)

// DefaultSchedule is the default backoff schedule between attempts.
var DefaultSchedule = Schedule{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Schedule is an ordered list of backoff delays. Delay i is waited after
// failed attempt i; past the end the last delay is reused.
type Schedule []time.Duration

// Delay returns the wait after the given zero-based attempt.
func (s Schedule) Delay(attempt int) time.Duration {
	if len(s) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(s) {
		return s[len(s)-1]
	}
	return s[attempt]
}

// AttemptState is the lifecycle state of a single attempt.
type AttemptState int

const (
	StatePending AttemptState = iota
	StateInFlight
	StateSucceeded
	StateFailedTerminal
	StateFailedRetryable
)

func (s AttemptState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	case StateFailedRetryable:
		return "failed_retryable"
	default:
		return "unknown"
	}
}

// AttemptEvent describes a state transition of one attempt.
type AttemptEvent struct {
	// Attempt is zero-based.
	Attempt int
	State   AttemptState
	Err     error
	// Delay is the backoff scheduled after a retryable failure.
	Delay time.Duration
	// Elapsed is the duration of the attempt, set once it has resolved.
	Elapsed time.Duration
	// Exhausted marks a retryable failure with no budget left.
	Exhausted bool
	// Cancelled marks a terminal event caused by ctx ending during backoff.
	Cancelled bool
}

// Observer receives attempt transitions. It runs on the calling goroutine.
type Observer func(AttemptEvent)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor drives the attempts of one logical call. The zero value makes a
// single attempt with no timeout. Executors hold no state between calls.
type Executor struct {
	MaxRetries int
	Schedule   Schedule
	// Timeout bounds each attempt; see WithTimeout.
	Timeout    time.Duration
	Classifier Classifier
	Sleep      Sleeper
	Observer   Observer
}

// DefaultExecutor returns an executor with 3 retries, the 1s/2s/4s schedule
// and a 30s attempt timeout.
func DefaultExecutor() Executor {
	return Executor{
		MaxRetries: DefaultMaxRetries,
		Schedule:   DefaultSchedule,
		Timeout:    DefaultTimeout,
		Classifier: Classify,
	}
}

// Execute runs op under the executor's policy. Attempts are strictly
// sequential. A failure that is terminal, or retryable with the budget spent,
// is returned unchanged together with the value op produced alongside it.
// Cancelling ctx during a backoff ends the call with the last failure.
func Execute[T any](ctx context.Context, exec Executor, op func(context.Context) (T, error)) (T, error) {
	classifier := exec.Classifier
	if classifier == nil {
		classifier = Classify
	}
	sleep := exec.Sleep
	if sleep == nil {
		sleep = contextSleep
	}

	for attempt := 0; ; attempt++ {
		exec.notify(AttemptEvent{Attempt: attempt, State: StatePending})
		exec.notify(AttemptEvent{Attempt: attempt, State: StateInFlight})

		start := time.Now()
		value, err := WithTimeout(ctx, exec.Timeout, op)
		elapsed := time.Since(start)

		if err == nil {
			exec.notify(AttemptEvent{Attempt: attempt, State: StateSucceeded, Elapsed: elapsed})
			return value, nil
		}

		if !classifier(err) {
			exec.notify(AttemptEvent{Attempt: attempt, State: StateFailedTerminal, Err: err, Elapsed: elapsed})
			return value, err
		}

		if attempt >= exec.MaxRetries {
			exec.notify(AttemptEvent{Attempt: attempt, State: StateFailedRetryable, Err: err, Elapsed: elapsed, Exhausted: true})
			exec.notify(AttemptEvent{Attempt: attempt, State: StateFailedTerminal, Err: err, Elapsed: elapsed, Exhausted: true})
			return value, err
		}

		delay := exec.Schedule.Delay(attempt)
		exec.notify(AttemptEvent{Attempt: attempt, State: StateFailedRetryable, Err: err, Elapsed: elapsed, Delay: delay})

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			exec.notify(AttemptEvent{Attempt: attempt, State: StateFailedTerminal, Err: err, Elapsed: elapsed, Cancelled: true})
			return value, err
		}
	}
}

func (e Executor) notify(ev AttemptEvent) {
	if e.Observer != nil {
		e.Observer(ev)
	}
}

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
