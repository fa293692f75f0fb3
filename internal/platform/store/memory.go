package store

import (
	"context"
	"sync"
)

// Memory is a process-lifetime collection. Contents are lost on restart.
type Memory[T any] struct {
	mu    sync.RWMutex
	seq   Sequence
	items []T
	index map[string]int
	last  int
}

// NewMemory creates an empty collection issuing identifiers from seq.
func NewMemory[T any](seq Sequence) *Memory[T] {
	return &Memory[T]{seq: seq, index: make(map[string]int)}
}

func (m *Memory[T]) Insert(ctx context.Context, build func(id string) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.seq.Format(m.last + 1)
	rec, err := build(id)
	if err != nil {
		return zero, err
	}
	m.last++
	m.index[id] = len(m.items)
	m.items = append(m.items, rec)
	return rec, nil
}

func (m *Memory[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.items[i], nil
}

// List returns a copy of the records in insertion order.
func (m *Memory[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *Memory[T]) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}
