package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krishija/campusintel/internal/fanout"
)

func TestRun_OneOutcomePerTask(t *testing.T) {
	t.Parallel()

	tasks := make([]fanout.Task, 20)
	for i := range tasks {
		tasks[i] = fanout.Task{Key: fmt.Sprintf("metric-%d", i), Query: "q"}
	}

	fn := func(_ context.Context, task fanout.Task) (string, error) {
		// Every third task fails; the batch must still drain.
		if strings.HasSuffix(task.Key, "3") || strings.HasSuffix(task.Key, "6") {
			return "", errors.New("boom")
		}
		return "value for " + task.Key, nil
	}

	out, err := fanout.Run(context.Background(), tasks, fn, fanout.Options{Workers: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(tasks) {
		t.Fatalf("expected %d outcomes, got %d", len(tasks), len(out))
	}
	for i, o := range out {
		if o.Key != tasks[i].Key {
			t.Errorf("outcome %d keyed %q, want %q", i, o.Key, tasks[i].Key)
		}
		failed := strings.HasSuffix(o.Key, "3") || strings.HasSuffix(o.Key, "6")
		if o.OK() == failed {
			t.Errorf("outcome %q ok = %v", o.Key, o.OK())
		}
	}
}

func TestRun_RetriesTransient(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, _ fanout.Task) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 2 {
			return 0, fanout.Transient(errors.New("try again"))
		}
		return 42, nil
	}

	out, err := fanout.Run(context.Background(), []fanout.Task{{Key: "k"}}, fn, fanout.Options{
		Workers:           1,
		MaxRetries:        3,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        2 * time.Millisecond,
		BackoffJitterFrac: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err != nil || out[0].Value != 42 {
		t.Fatalf("unexpected outcome: %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRun_DoesNotRetryPermanent(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0

	fn := func(_ context.Context, _ fanout.Task) (int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return 0, errors.New("permanent")
	}

	out, err := fanout.Run(context.Background(), []fanout.Task{{Key: "k"}}, fn, fanout.Options{
		Workers:           1,
		MaxRetries:        10,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        time.Millisecond,
		BackoffJitterFrac: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err == nil || out[0].Err.Error() != "permanent" {
		t.Fatalf("unexpected outcome: %#v", out[0])
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(_ context.Context, _ fanout.Task) (int, error) {
		t.Fatal("fn should not run after cancel")
		return 0, nil
	}

	if _, err := fanout.Run(ctx, []fanout.Task{{Key: "k"}}, fn, fanout.Options{Workers: 1}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRun_TrackerAdvances(t *testing.T) {
	t.Parallel()

	tasks := []fanout.Task{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	tracker := fanout.NewTracker(len(tasks))

	fn := func(_ context.Context, task fanout.Task) (string, error) {
		if task.Key == "b" {
			return "", errors.New("boom")
		}
		return "ok", nil
	}

	if _, err := fanout.Run(context.Background(), tasks, fn, fanout.Options{Workers: 2, Tracker: tracker}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, failed, total, _ := tracker.Progress()
	if done != 3 || failed != 1 || total != 3 {
		t.Errorf("progress = %d/%d failed=%d, want 3/3 failed=1", done, total, failed)
	}
	if !tracker.Finished() {
		t.Error("tracker should be finished")
	}
	if tracker.Fraction() != 1 {
		t.Errorf("fraction = %v, want 1", tracker.Fraction())
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	if fanout.IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if fanout.IsTransient(errors.New("plain")) {
		t.Error("plain errors are not transient")
	}
	if !fanout.IsTransient(fanout.Transient(errors.New("x"))) {
		t.Error("wrapped transient not detected")
	}
	if !fanout.IsTransient(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Error("deadline exceeded should be transient")
	}
}
