package test

import (
	"fmt"

	"go.uber.org/mock/gomock"
)

type funcMatcher[T any] struct {
	match func(val T) bool
	v     T
}

func (f *funcMatcher[T]) Matches(val interface{}) bool {
	var ok bool
	f.v, ok = val.(T)
	if !ok {
		return false
	}

	return f.match(f.v)
}

func (f *funcMatcher[T]) String() string {
	return fmt.Sprintf("to match %v", f.v)
}

// Match builds a gomock matcher from a predicate over the argument's type.
func Match[T any](m func(v T) bool) gomock.Matcher {
	return &funcMatcher[T]{
		match: m,
	}
}

// Capture stores the argument in dst and always matches.
func Capture[T any](dst *T) gomock.Matcher {
	return Match(func(v T) bool {
		*dst = v
		return true
	})
}
