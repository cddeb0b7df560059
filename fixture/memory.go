package fixture

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Memory pages an in-memory slice.
type Memory[T any] struct {
	items []T
	reads atomic.Int64
}

// NewMemory creates a pager over items.
func NewMemory[T any](items ...T) *Memory[T] {
	return &Memory[T]{items: items}
}

func (m *Memory[T]) Size(context.Context) (int, error) {
	return len(m.items), nil
}

// Read returns a copy of items[skip:skip+take].
func (m *Memory[T]) Read(ctx context.Context, skip, take int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if skip < 0 || take < 0 || skip > len(m.items) {
		return nil, fmt.Errorf("window [%d,%d) outside %d items", skip, skip+take, len(m.items))
	}
	m.reads.Add(1)
	end := min(skip+take, len(m.items))
	out := make([]T, end-skip)
	copy(out, m.items[skip:end])
	return out, nil
}

// Reads returns how many windows were read.
func (m *Memory[T]) Reads() int64 { return m.reads.Load() }
