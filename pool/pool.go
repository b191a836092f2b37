package pool

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/nerolation/spamoor/types"
)

// Pool is an ordered registry of resources with three selection modes:
// explicit index, uniform random, and round-robin. The round-robin cursor is
// per-pool state shared across callers; draws are serialized under the pool
// mutex so two concurrent callers never receive the same cursor position.
type Pool[T any] struct {
	mu     sync.Mutex
	items  []T
	cursor int
}

func New[T any](items ...T) *Pool[T] {
	p := &Pool[T]{}
	p.Add(items...)
	return p
}

func (p *Pool[T]) Add(items ...T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, items...)
}

func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Items returns a copy of the pool contents in insertion order.
func (p *Pool[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Next hands out the next element for the given mode. The index argument is
// only consulted for SelectByIndex.
func (p *Pool[T]) Next(mode types.SelectionMode, index int) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	size := len(p.items)

	switch mode {
	case types.SelectByIndex:
		if index < 0 || index >= size {
			return zero, fmt.Errorf("%w: index %d, pool size %d", types.ErrOutOfRange, index, size)
		}
		return p.items[index], nil
	case types.SelectRandom:
		if size == 0 {
			return zero, types.ErrEmptyPool
		}
		return p.items[rand.Intn(size)], nil
	case types.SelectRoundRobin:
		if size == 0 {
			return zero, types.ErrEmptyPool
		}
		item := p.items[p.cursor]
		p.cursor = (p.cursor + 1) % size
		return item, nil
	default:
		return zero, fmt.Errorf("%w: invalid selection mode %d", types.ErrConfiguration, mode)
	}
}
