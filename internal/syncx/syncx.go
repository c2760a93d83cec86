// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package syncx contains useful synchronization primitives.
package syncx

import "sync"

// Protected is a value guarded by a mutex. The zero value is not usable, use
// [Protect].
type Protected[T any] struct {
	mu sync.RWMutex
	v  T
}

// Protect returns a Protected wrapping v.
func Protect[T any](v T) *Protected[T] {
	return &Protected[T]{v: v}
}

// Access calls f with the protected value while holding an exclusive lock.
func (p *Protected[T]) Access(f func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(p.v)
}

// RAccess calls f with the protected value while holding a shared lock. f
// must not mutate the value.
func (p *Protected[T]) RAccess(f func(T)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f(p.v)
}

// Set replaces the protected value.
func (p *Protected[T]) Set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.v = v
}

// Lazy is a lazily initialized value.
type Lazy[T any] struct {
	once sync.Once
	v    T
}

// Get returns the value, calling init to construct it on first use.
func (l *Lazy[T]) Get(init func() T) T {
	l.once.Do(func() {
		l.v = init()
	})
	return l.v
}
