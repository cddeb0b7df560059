package pipeline

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"testing"
	"time"
)

func intSliceEqual(a, b []int) bool { return slices.Equal(a, b) }

func TestValues_Collect(t *testing.T) {
	got, err := Collect(context.Background(), NewFirst(Values(1, 2, 3)))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestSlice_Empty(t *testing.T) {
	p := NewFirst(Slice([]int{}))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
	if p.Status() != StatusFinished {
		t.Errorf("status = %s, want finished", p.Status())
	}
}

func TestChannel_ConsumesQueue(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	got, err := Collect(context.Background(), NewFirst(Channel(ch)))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestSeq(t *testing.T) {
	var seq iter.Seq2[int, error] = func(yield func(int, error) bool) {
		for i := range 3 {
			if !yield(i, nil) {
				return
			}
		}
		yield(0, errors.New("tail"))
	}

	got, err := Collect(context.Background(), NewFirst(Seq(seq)))
	if err == nil || !strings.Contains(err.Error(), "tail") {
		t.Fatalf("err = %v, want tail error", err)
	}
	if !intSliceEqual(got, []int{0, 1, 2}) {
		t.Errorf("got %v, want [0 1 2]", got)
	}
}

func TestFunc(t *testing.T) {
	n := 0
	p := NewFirst(Func(func(context.Context) (int, bool, error) {
		n++
		return n, n <= 3, nil
	}))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestMap(t *testing.T) {
	doubled := Map(NewFirst(Values(1, 2, 3)), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{2, 4, 6}) {
		t.Errorf("got %v, want [2 4 6]", got)
	}
}

func TestMap_Error(t *testing.T) {
	bad := errors.New("bad value")
	fail := Map(NewFirst(Values(1, 2, 3)), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, bad
		}
		return n, nil
	})
	got, err := Collect(context.Background(), fail)
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want bad value", err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("expected [1] before error, got %v", got)
	}
	if fail.Status() != StatusErrored {
		t.Errorf("status = %s, want errored", fail.Status())
	}
}

func TestFlatMap(t *testing.T) {
	p := FlatMap(NewFirst(Values(1, 2, 3)), func(_ context.Context, n int) ([]int, error) {
		if n == 2 {
			return nil, nil
		}
		return []int{n, n * 10}, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 10, 3, 30}) {
		t.Errorf("got %v, want [1 10 3 30]", got)
	}
}

func TestFilter(t *testing.T) {
	evens := Filter(NewFirst(Values(1, 2, 3, 4, 5, 6)), func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{2, 4, 6}) {
		t.Errorf("got %v", got)
	}
}

func TestTap(t *testing.T) {
	var seen []int
	p := Tap(NewFirst(Values(1, 2, 3)), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, seen) {
		t.Errorf("tap saw %v, collected %v", seen, got)
	}
}

func TestBatch_BySize(t *testing.T) {
	p := Batch(NewFirst(Values(1, 2, 3, 4, 5)), 2, 0)
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || !intSliceEqual(got[0], []int{1, 2}) || !intSliceEqual(got[2], []int{5}) {
		t.Errorf("got %v, want [[1 2] [3 4] [5]]", got)
	}
}

func TestBatch_ByTimeout(t *testing.T) {
	n := 0
	slow := NewFirst(Func(func(context.Context) (int, bool, error) {
		n++
		time.Sleep(5 * time.Millisecond)
		return n, n <= 6, nil
	}))
	p := Batch(slow, 0, 12*time.Millisecond)
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, b := range got {
		total += len(b)
	}
	if total != 6 {
		t.Errorf("batched %d values, want 6", total)
	}
	if len(got) < 2 {
		t.Errorf("expected the timeout to split batches, got %v", got)
	}
}

func TestBatch_PartialBatchBeforeError(t *testing.T) {
	cause := errors.New("broken")
	p := Batch(NewFirst(Failing(cause, 1, 2, 3)), 2, 0)

	got, err := Collect(context.Background(), p)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
	if len(got) != 2 || !intSliceEqual(got[1], []int{3}) {
		t.Errorf("got %v, want [[1 2] [3]]", got)
	}
}
