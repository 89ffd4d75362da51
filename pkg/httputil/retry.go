package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses, 429) with this
// type so that [Retry] knows to attempt the operation again. RetryAfter, when
// set, overrides the next backoff interval.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped in a RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	Attempts int           // total tries, including the first
	Delay    time.Duration // first backoff interval
	MaxDelay time.Duration // cap for a single interval and for honored Retry-After hints
}

// DefaultPolicy is 3 attempts starting at one second, doubling each retry.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// NoRetry runs the operation exactly once.
var NoRetry = Policy{Attempts: 1}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. A Retry-After hint longer than MaxDelay ends the
// loop immediately rather than stalling the caller.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = max(p.Delay, time.Millisecond)
	exp.Multiplier = 2
	if p.MaxDelay > 0 {
		exp.MaxInterval = p.MaxDelay
	}
	b := &hintedBackOff{BackOff: exp}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err == nil {
			return struct{}{}, nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return struct{}{}, backoff.Permanent(err)
		}
		if p.MaxDelay > 0 && re.RetryAfter > p.MaxDelay {
			return struct{}{}, backoff.Permanent(err)
		}
		b.hint = re.RetryAfter
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(max(p.Attempts, 1))))
	return err
}

// Retry executes fn up to attempts times with exponential backoff starting at
// delay. Only errors wrapped with [RetryableError] are retried.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Policy{Attempts: attempts, Delay: delay, MaxDelay: DefaultPolicy.MaxDelay}.Do(ctx, fn)
}

// RetryWithBackoff runs fn under [DefaultPolicy].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultPolicy.Do(ctx, fn)
}

// hintedBackOff lets a server-provided Retry-After replace one interval.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	if h.hint > 0 {
		d := h.hint
		h.hint = 0
		return d
	}
	return h.BackOff.NextBackOff()
}

func (h *hintedBackOff) Reset() {
	h.hint = 0
	h.BackOff.Reset()
}

// ParseRetryAfter interprets a Retry-After header given either as delta
// seconds or as an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
