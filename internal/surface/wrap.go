package surface

import (
	"fmt"

	"github.com/starford/dailycanvas/internal/apperr"
)

// Hooks run around an intercepted method. Before runs ahead of the original
// behavior; After runs only when the original returned without error.
type Hooks[T any] struct {
	Before func(recv T, args []any)
	After  func(recv T, args []any, result any)
}

// Wrap augments method on s with hooks, keyed by token. The original
// method's return value and error pass through untouched.
//
// Wrapping again with a token that was already applied to the same
// method is a no-op and reports applied == false. Only methods defined
// directly on s can be wrapped.
func Wrap[T any](s *Surface[T], method, token string, h Hooks[T]) (applied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[method][token]; ok {
		return false, nil
	}
	orig, ok := s.methods[method]
	if !ok {
		return false, fmt.Errorf("surface %s: wrap %q: %w", s.name, method, apperr.ErrUnrecognizedSurface)
	}

	s.methods[method] = func(recv T, args ...any) (any, error) {
		if h.Before != nil {
			h.Before(recv, args)
		}
		res, err := orig(recv, args...)
		if err == nil && h.After != nil {
			h.After(recv, args, res)
		}
		return res, err
	}
	if s.tokens[method] == nil {
		s.tokens[method] = make(map[string]struct{})
	}
	s.tokens[method][token] = struct{}{}
	return true, nil
}
