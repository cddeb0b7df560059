package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// snapshots returns a production whose k-th invocation yields batches[k].
func snapshots(calls *atomic.Int32, batches ...[]int) Production[int] {
	return func(context.Context) Iterator[int] {
		k := int(calls.Add(1)) - 1
		if k >= len(batches) {
			return &sliceIter[int]{}
		}
		return &sliceIter[int]{items: batches[k]}
	}
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name      string
		batches   [][]int
		opts      []Option
		want      []int
		wantPolls int32
	}{
		{
			name:      "max polls",
			batches:   [][]int{{1, 2}, {3}, {4, 5}, {6}},
			opts:      []Option{WithMaxPolls(3)},
			want:      []int{1, 2, 3, 4, 5},
			wantPolls: 3,
		},
		{
			name:      "empty snapshot finishes",
			batches:   [][]int{{1}, {}, {2}},
			want:      []int{1},
			wantPolls: 2,
		},
		{
			name:      "keep polling when empty",
			batches:   [][]int{{1}, {}, {2}},
			opts:      []Option{KeepPollingWhenEmpty(), WithMaxPolls(3)},
			want:      []int{1, 2},
			wantPolls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			p := Poll(snapshots(&calls, tt.batches...), time.Millisecond, tt.opts...)

			got, err := Collect(context.Background(), p)
			if err != nil {
				t.Fatal(err)
			}
			if !intSliceEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if n := calls.Load(); n != tt.wantPolls {
				t.Errorf("polled %d times, want %d", n, tt.wantPolls)
			}
			if p.Status() != StatusFinished {
				t.Errorf("status = %s, want finished", p.Status())
			}
		})
	}
}

func TestPoll_WaitsForInterval(t *testing.T) {
	var calls atomic.Int32
	interval := 30 * time.Millisecond
	p := Poll(snapshots(&calls, []int{1}, []int{2}), interval, WithMaxPolls(2))

	start := time.Now()
	if _, err := Collect(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Errorf("two polls took %v, want at least %v", elapsed, interval)
	}
}

func TestPoll_StopBetweenIntervals(t *testing.T) {
	var calls atomic.Int32
	p := Poll(snapshots(&calls, []int{1}, []int{2}), time.Hour)

	ctx := context.Background()
	it := p.Produces(ctx)
	defer it.Close()
	if v, ok, err := it.Next(ctx); !ok || err != nil || v != 1 {
		t.Fatalf("first pull = (%d, %v, %v)", v, ok, err)
	}

	time.AfterFunc(20*time.Millisecond, p.Stop)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok, err := it.Next(ctx); ok || err != nil {
			t.Errorf("pull after stop = (%v, %v), want exhausted", ok, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not interrupt the poll interval")
	}
	if calls.Load() != 1 {
		t.Errorf("polled %d times after stop, want 1", calls.Load())
	}
	if p.Status() != StatusStopped {
		t.Errorf("status = %s, want stopped", p.Status())
	}
}

func TestLambda_PollReusesProduction(t *testing.T) {
	var calls atomic.Int32
	p := NewFirst(snapshots(&calls, []int{1}, []int{2}, []int{3})).Poll(time.Millisecond, WithMaxPolls(2))

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
}
