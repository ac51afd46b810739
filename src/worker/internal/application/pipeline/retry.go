package pipeline

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/transient"
)

// RetryPolicy retries transient failures with exponential backoff.
// Anything not carrying the transient mark fails on the first attempt.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// AttemptTimeout bounds one attempt, OverallTimeout bounds the
	// whole run including backoff waits. Zero disables either bound.
	AttemptTimeout time.Duration
	OverallTimeout time.Duration

	// Sleep defaults to time.Sleep, tests inject a no-op
	Sleep func(d time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		AttemptTimeout:  30 * time.Minute,
		OverallTimeout:  90 * time.Minute,
	}
}

// Run invokes operation until it succeeds, returns a non-transient
// error, or exhausts MaxAttempts. The last error is returned as is so
// marks survive for the caller to classify.
func (r RetryPolicy) Run(ctx context.Context, stateName string, operation func(ctx context.Context) error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	if r.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.OverallTimeout)
		defer cancel()
	}

	intervals := backoff.NewExponentialBackOff()
	intervals.InitialInterval = r.InitialInterval
	intervals.MaxInterval = r.MaxInterval
	intervals.MaxElapsedTime = 0
	intervals.Reset()

	for attempt := 1; ; attempt++ {
		err := r.attempt(ctx, operation)
		if err == nil {
			return nil
		}

		if !retryable(err) || attempt >= r.MaxAttempts || ctx.Err() != nil {
			return err
		}

		wait := intervals.NextBackOff()

		log.WithFields(log.Fields{
			"state":   stateName,
			"attempt": attempt,
			"wait":    wait.String(),
		}).WithError(err).Warn("Transient failure, retrying")

		sleep(wait)
	}
}

func (r RetryPolicy) attempt(ctx context.Context, operation func(ctx context.Context) error) error {
	if r.AttemptTimeout == 0 {
		return operation(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.AttemptTimeout)
	defer cancel()

	return operation(attemptCtx)
}

// a timed-out attempt counts as transient: the next one starts fresh
func retryable(err error) bool {
	return transient.Is(err) || errors.Is(err, context.DeadlineExceeded)
}
