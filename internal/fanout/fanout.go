// Package fanout runs batches of independent research tasks over a bounded
// worker pool. A failed task never aborts the batch; callers always receive
// one outcome per task and decide how to degrade.
package fanout

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Task is one unit of work, addressed by a stable key so outcomes can be
// matched back regardless of completion order.
type Task struct {
	Key   string
	Query string
}

// Outcome pairs a task key with its result or error. Exactly one of Value
// and Err is meaningful.
type Outcome[T any] struct {
	Key   string
	Value T
	Err   error
}

// OK reports whether the task produced a value.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Options tunes the pool. The zero value gets sane defaults.
type Options struct {
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64

	// BackoffInitial is the initial sleep before retrying a transient failure.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64

	// Tracker, when set, is advanced as tasks finish.
	Tracker *Tracker
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 90 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if o.BackoffJitterFrac <= 0 {
		o.BackoffJitterFrac = 0.2
	}
	return o
}

// Run executes fn for every task and returns one outcome per task, in task
// order. Individual failures are recorded in their outcome; Run itself only
// errors when ctx is canceled before the batch drains.
func Run[T any](ctx context.Context, tasks []Task, fn func(context.Context, Task) (T, error), opts Options) ([]Outcome[T], error) {
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	out := make([]Outcome[T], len(tasks))

	type job struct {
		idx  int
		task Task
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for j := range jobs {
			if ctx.Err() != nil {
				return
			}
			v, err := runOne(ctx, j.task, fn, limiter, opts)
			out[j.idx] = Outcome[T]{Key: j.task.Key, Value: v, Err: err}
			if opts.Tracker != nil {
				opts.Tracker.done(j.task.Key, err == nil)
			}
		}
	}

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go worker()
	}

	for i, t := range tasks {
		select {
		case jobs <- job{idx: i, task: t}:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func runOne[T any](ctx context.Context, task Task, fn func(context.Context, Task) (T, error), limiter *rate.Limiter, opts Options) (T, error) {
	var last T
	var lastErr error

	attempts := 1 + opts.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return last, err
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		v, err := fn(reqCtx, task)
		cancel()
		last = v
		if err == nil {
			return v, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return last, ctx.Err()
		}
		lastErr = err
		if !IsTransient(err) || attempt == attempts-1 {
			return last, err
		}

		sleep := backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt)
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return last, ctx.Err()
		}
	}
	return last, lastErr
}

// TransientError marks an error as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the pool will retry it. Nil passes through.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// transienter lets error types opt in to retries without wrapping.
type transienter interface {
	Transient() bool
}

// IsTransient reports whether the pool should retry after err.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var tr transienter
	if errors.As(err, &tr) {
		return tr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	// Apply +/- jitterFrac.
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
