// Package reactive provides synchronous observable cells. Propagation is
// total-ordered: a Set returns only after every subscriber has observed the
// new value, and no subscriber ever sees a half-updated snapshot.
package reactive

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Cell holds a single observable value.
type Cell[T any] struct {
	mu     sync.Mutex
	propMu sync.Mutex
	value  T
	subs   []subscriber[T]
	nextID int
}

// New returns a cell seeded with the initial value.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores the value and notifies subscribers in subscription order.
// The propagation lock serializes concurrent writers so interleaved updates
// never deliver values out of order.
func (c *Cell[T]) Set(value T) {
	c.propMu.Lock()
	defer c.propMu.Unlock()

	c.mu.Lock()
	c.value = value
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Subscribe registers fn and returns a cancel func. fn is not called with
// the current value; read it with Get if needed.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subs {
			if sub.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Derive returns a cell whose value is fn applied to src, kept in sync
// synchronously with every change of src.
func Derive[A, B any](src *Cell[A], fn func(A) B) *Cell[B] {
	out := New(fn(src.Get()))
	src.Subscribe(func(v A) {
		out.Set(fn(v))
	})
	return out
}

// Derive2 returns a cell recomputed from two sources whenever either changes.
func Derive2[A, B, C any](a *Cell[A], b *Cell[B], fn func(A, B) C) *Cell[C] {
	out := New(fn(a.Get(), b.Get()))
	recompute := func() {
		out.Set(fn(a.Get(), b.Get()))
	}
	a.Subscribe(func(A) { recompute() })
	b.Subscribe(func(B) { recompute() })
	return out
}
