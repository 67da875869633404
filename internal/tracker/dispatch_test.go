package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// TestDispatcher_RunsInIssueOrder verifies workflows execute one at a
// time in the order they were enqueued.
func TestDispatcher_RunsInIssueOrder(t *testing.T) {
	d := newDispatcher(testLogger())
	defer d.close()
	ctx := context.Background()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		i := i
		if err := d.do(ctx, "step", func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("do(%d) failed: %v", i, err)
		}
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d ran workflow %d, want %d", i, v, i)
		}
	}
}

// TestDispatcher_SerializesConcurrentCallers verifies no two workflows
// overlap even when enqueued from many goroutines.
func TestDispatcher_SerializesConcurrentCallers(t *testing.T) {
	d := newDispatcher(testLogger())
	defer d.close()
	ctx := context.Background()

	var inFlight, max, total int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = d.do(ctx, "step", func(context.Context) error {
					mu.Lock()
					inFlight++
					if inFlight > max {
						max = inFlight
					}
					mu.Unlock()

					mu.Lock()
					inFlight--
					total++
					mu.Unlock()
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("max concurrent workflows = %d, want 1", max)
	}
	if total != 200 {
		t.Errorf("ran %d workflows, want 200", total)
	}
}

// TestDispatcher_ErrorsAfterClose verifies both trigger styles refuse
// work once the dispatcher is closed.
func TestDispatcher_ErrorsAfterClose(t *testing.T) {
	d := newDispatcher(testLogger())
	d.close()

	if err := d.do(context.Background(), "step", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("do after close = %v, want ErrClosed", err)
	}

	ran := false
	d.post("step", func(context.Context) error { ran = true; return nil })
	if ran {
		t.Error("post after close ran its workflow")
	}
}

// TestDispatcher_ReturnsWorkflowError verifies the caller sees the
// workflow's own error.
func TestDispatcher_ReturnsWorkflowError(t *testing.T) {
	d := newDispatcher(testLogger())
	defer d.close()

	want := errors.New("boom")
	if err := d.do(context.Background(), "step", func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("do = %v, want %v", err, want)
	}
}
