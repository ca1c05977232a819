// Package surface models behavior surfaces: named method tables shared by
// every instance bound to them, chained to a parent surface the way a
// prototype chain is. Wrap augments a method in place so that all current
// and future instances observe the change.
package surface

import (
	"fmt"
	"sync"

	"github.com/starford/dailycanvas/internal/apperr"
)

// Method is one entry of a surface's method table.
type Method[T any] func(recv T, args ...any) (any, error)

// Surface is a shared method table for receivers of type T.
type Surface[T any] struct {
	name   string
	parent *Surface[T]

	mu      sync.Mutex
	methods map[string]Method[T]
	tokens  map[string]map[string]struct{} // method -> applied patch tokens
}

// New creates a surface named name whose lookups fall back to parent.
func New[T any](name string, parent *Surface[T]) *Surface[T] {
	return &Surface[T]{
		name:    name,
		parent:  parent,
		methods: make(map[string]Method[T]),
		tokens:  make(map[string]map[string]struct{}),
	}
}

// Name returns the surface name.
func (s *Surface[T]) Name() string { return s.name }

// Parent returns the next surface up the chain, or nil at the root.
func (s *Surface[T]) Parent() *Surface[T] { return s.parent }

// Define installs (or replaces) method name on this surface.
func (s *Surface[T]) Define(name string, m Method[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = m
}

// Defines reports whether this surface itself (not a parent) defines name.
func (s *Surface[T]) Defines(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.methods[name]
	return ok
}

// Lookup resolves name along the chain starting at s.
func (s *Surface[T]) Lookup(name string) (Method[T], bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		m, ok := cur.methods[name]
		cur.mu.Unlock()
		if ok {
			return m, true
		}
	}
	return nil, false
}

// Call dispatches name on recv, resolving the method at call time so that
// patches applied after the receiver was created still take effect.
func (s *Surface[T]) Call(recv T, name string, args ...any) (any, error) {
	m, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("surface %s: method %q: %w", s.name, name, apperr.ErrUnrecognizedSurface)
	}
	return m(recv, args...)
}

// CallSuper dispatches name starting at the parent surface.
func (s *Surface[T]) CallSuper(recv T, name string, args ...any) (any, error) {
	if s.parent == nil {
		return nil, fmt.Errorf("surface %s: no parent for %q: %w", s.name, name, apperr.ErrUnrecognizedSurface)
	}
	return s.parent.Call(recv, name, args...)
}

// Patched reports whether token has been applied to method on this surface.
func (s *Surface[T]) Patched(method, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[method][token]
	return ok
}

// Highest walks up from s and returns the top-most surface in the
// contiguous run of surfaces that define method, starting from the first
// surface that defines it. It returns nil when no surface defines method.
func (s *Surface[T]) Highest(method string) *Surface[T] {
	cur := s
	for cur != nil && !cur.Defines(method) {
		cur = cur.parent
	}
	if cur == nil {
		return nil
	}
	for cur.parent != nil && cur.parent.Defines(method) {
		cur = cur.parent
	}
	return cur
}
