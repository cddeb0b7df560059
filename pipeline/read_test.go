package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	flowerrors "github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/resilience"
)

type memPager struct {
	items    []int
	sizeErr  error
	failAt   int
	failures int
	reads    int
}

func (p *memPager) Size(context.Context) (int, error) {
	if p.sizeErr != nil {
		return 0, p.sizeErr
	}
	return len(p.items), nil
}

func (p *memPager) Read(_ context.Context, skip, take int) ([]int, error) {
	p.reads++
	if skip == p.failAt && p.failures > 0 {
		p.failures--
		return nil, errors.New("window unavailable")
	}
	return p.items[skip : skip+take], nil
}

func TestRead_Windows(t *testing.T) {
	pager := &memPager{items: []int{1, 2, 3, 4, 5, 6, 7}, failAt: -1}
	p := Read[[]int](pager, 3)

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
	if len(got) != len(want) {
		t.Fatalf("got %d windows, want %d", len(got), len(want))
	}
	for i := range want {
		if !intSliceEqual(got[i], want[i]) {
			t.Errorf("window %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRead_EmptySource(t *testing.T) {
	p := Read[[]int](&memPager{failAt: -1}, 10)

	got, err := Collect(context.Background(), p)
	if err != nil || len(got) != 0 {
		t.Errorf("got (%v, %v), want no windows", got, err)
	}
	if p.Status() != StatusFinished {
		t.Errorf("status = %s, want finished", p.Status())
	}
}

func TestRead_SizeFailure(t *testing.T) {
	cause := errors.New("count failed")
	p := Read[[]int](&memPager{sizeErr: cause}, 10, WithName("users"))

	_, err := Collect(context.Background(), p)
	if flowerrors.CodeOf(err) != flowerrors.ErrCodeRead {
		t.Fatalf("code = %s, want %s", flowerrors.CodeOf(err), flowerrors.ErrCodeRead)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v does not wrap %v", err, cause)
	}
	if pe, _ := flowerrors.AsPipeError(err); pe == nil || pe.Pipe != "users" {
		t.Errorf("pipe error = %+v, want pipe users", pe)
	}
}

func TestRead_WindowFailure(t *testing.T) {
	pager := &memPager{items: []int{1, 2, 3, 4, 5}, failAt: 2, failures: 1}
	p := Read[[]int](pager, 2)

	got, err := Collect(context.Background(), p)
	if len(got) != 1 {
		t.Errorf("got %d windows before the failure, want 1", len(got))
	}
	pe, ok := flowerrors.AsPipeError(err)
	if !ok || pe.Code != flowerrors.ErrCodeRead {
		t.Fatalf("err = %v, want read failure", err)
	}
	if pe.Details["skip"] != 2 || pe.Details["take"] != 2 {
		t.Errorf("details = %v, want skip=2 take=2", pe.Details)
	}
}

func TestRead_RetriesWindow(t *testing.T) {
	pager := &memPager{items: []int{1, 2, 3, 4}, failAt: 2, failures: 2}
	p := Read[[]int](pager, 2, WithReadRetry(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}))

	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !intSliceEqual(got[1], []int{3, 4}) {
		t.Errorf("got %v, want two windows", got)
	}
	if pager.reads != 4 {
		t.Errorf("pager read %d times, want 4", pager.reads)
	}
}
