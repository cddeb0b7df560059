package pipeline

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	flowerrors "github.com/kbukum/flowkit/errors"
)

func rangeProduction(calls *atomic.Int32, n int) Production[int] {
	return func(context.Context) Iterator[int] {
		calls.Add(1)
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		return &sliceIter[int]{items: items}
	}
}

// endless yields increasing integers until its context is cancelled.
func endless(calls *atomic.Int32) Production[int] {
	return func(context.Context) Iterator[int] {
		calls.Add(1)
		n := 0
		return funcIter[int](func(ctx context.Context) (int, bool, error) {
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
			n++
			return n, true, nil
		})
	}
}

func TestThread_SerialCollapseAcrossCallers(t *testing.T) {
	const items, callers = 200, 4
	var calls atomic.Int32
	p := NewFirst(rangeProduction(&calls, items)).Thread(1)

	var (
		mu  sync.Mutex
		all []int
		wg  sync.WaitGroup
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Collect(context.Background(), p)
			if err != nil {
				t.Errorf("Collect: %v", err)
			}
			mu.Lock()
			all = append(all, got...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	slices.Sort(all)
	if len(all) != items {
		t.Fatalf("observed %d items across callers, want %d", len(all), items)
	}
	for i, v := range all {
		if v != i {
			t.Fatalf("item %d = %d: duplicate or drop", i, v)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream production ran %d times, want 1", n)
	}
}

func TestThread_ConcurrentDrainersShareOnePass(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	up := NewFirst(func(ctx context.Context) Iterator[int] {
		calls.Add(1)
		n := 0
		return funcIter[int](func(ctx context.Context) (int, bool, error) {
			<-gate
			n++
			return n, n <= 50, nil
		})
	})
	p := Threaded[int](up, 2)

	ctx := context.Background()
	a, b := p.Produces(ctx), p.Produces(ctx)
	defer a.Close()
	defer b.Close()

	var got []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, it := range []Iterator[int]{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok, err := it.Next(ctx)
				if err != nil {
					t.Errorf("Next: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if len(got) != 50 {
		t.Errorf("drained %d items, want 50", len(got))
	}
	if calls.Load() != 1 {
		t.Errorf("upstream production ran %d times, want 1", calls.Load())
	}
}

func TestThread_TransformEachItemOnce(t *testing.T) {
	var calls atomic.Int32
	var applied atomic.Int32
	p := Thread(NewFirst(rangeProduction(&calls, 100)), 8, func(_ context.Context, n int) (int, error) {
		applied.Add(1)
		return n * 2, nil
	})

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(got)
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("got[%d] = %d, want %d", i, v, i*2)
		}
	}
	if len(got) != 100 || applied.Load() != 100 {
		t.Errorf("got %d items, transform ran %d times", len(got), applied.Load())
	}
}

func TestThread_WorkerErrorReachesDrainer(t *testing.T) {
	var calls atomic.Int32
	cause := errors.New("bad item")
	p := Thread(NewFirst(rangeProduction(&calls, 50)), 4, func(_ context.Context, n int) (int, error) {
		if n == 7 {
			return 0, cause
		}
		return n, nil
	})

	_, err := Collect(context.Background(), p)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want %v", err, cause)
	}
	if p.Status() != StatusErrored {
		t.Errorf("status = %s, want errored", p.Status())
	}
}

func TestThread_WorkerFailureStopsUpstream(t *testing.T) {
	var calls atomic.Int32
	up := NewFirst(endless(&calls))
	cause := errors.New("bad item")
	p := Thread(up, 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, cause
		}
		return n, nil
	})

	_, err := Collect(context.Background(), p)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want %v", err, cause)
	}
	if p.Status() != StatusErrored {
		t.Errorf("thread status = %s, want errored", p.Status())
	}
	if up.Status() != StatusStopped {
		t.Errorf("upstream status = %s, want stopped", up.Status())
	}
}

func TestThread_SimultaneousFailuresFlattenToOne(t *testing.T) {
	var calls atomic.Int32
	p := Thread(NewFirst(rangeProduction(&calls, 8)), 8, func(_ context.Context, n int) (int, error) {
		return 0, errors.New("worker failed")
	})

	_, err := Collect(context.Background(), p)
	pe, ok := flowerrors.AsPipeError(err)
	if !ok {
		t.Fatalf("err = %T %v", err, err)
	}
	if pe.Cause == nil || pe.Cause.Error() != "worker failed" {
		t.Errorf("cause = %v, want a single worker failure", pe.Cause)
	}
}

func TestThread_WorkerPanic(t *testing.T) {
	var calls atomic.Int32
	p := Thread(NewFirst(rangeProduction(&calls, 3)), 2, func(_ context.Context, n int) (int, error) {
		panic("worker exploded")
	})

	_, err := Collect(context.Background(), p)
	if flowerrors.CodeOf(err) != flowerrors.ErrCodePanic {
		t.Fatalf("err = %v, want WORKER_PANIC", err)
	}
}

func TestThread_StopEndsPass(t *testing.T) {
	var calls atomic.Int32
	up := NewFirst(endless(&calls))
	p := up.Thread(2)

	ctx := context.Background()
	it := p.Produces(ctx)
	defer it.Close()
	for range 5 {
		if _, ok, err := it.Next(ctx); !ok || err != nil {
			t.Fatalf("pull = (%v, %v)", ok, err)
		}
	}

	p.Stop()
	if _, ok, err := it.Next(ctx); ok || err != nil {
		t.Errorf("pull after stop = (%v, %v), want exhausted", ok, err)
	}
	if up.Status() != StatusStopped {
		t.Errorf("upstream status = %s, want stopped", up.Status())
	}
	if _, err := Collect(ctx, p); !flowerrors.IsStopped(err) {
		t.Errorf("re-pull err = %v, want stopped", err)
	}
}

func TestThread_LastDrainerLeavingReleasesPool(t *testing.T) {
	var calls atomic.Int32
	up := NewFirst(endless(&calls))
	p := Threaded[int](up, 2)

	ctx := context.Background()
	it := p.Produces(ctx)
	if _, _, err := it.Next(ctx); err != nil {
		t.Fatal(err)
	}
	_ = it.Close()

	deadline := time.Now().Add(time.Second)
	for up.Status() != StatusStopped {
		if time.Now().After(deadline) {
			t.Fatalf("upstream still %s after the last drainer left", up.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestThread_QueueCapacity(t *testing.T) {
	var calls atomic.Int32
	p := Threaded(NewFirst(rangeProduction(&calls, 10)), 2, WithQueueCapacity(16))

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("got %d items, want 10", len(got))
	}
}
