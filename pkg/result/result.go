// Package result provides a two-variant outcome type and the combinators used
// to sequence fallible steps without nested error branching.
//
// A Result is either Ok(value) or Fail(err). Combinators never perform side
// effects themselves; effects happen only inside the functions handed to them,
// and a failure short-circuits every later step of a chain.
package result

import "fmt"

// Unit is the value carried by results of steps that produce nothing.
type Unit = struct{}

// Done is the Unit value.
var Done = Unit{}

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps an error. A nil error is a programming mistake and panics.
func Fail[T any](err error) Result[T] {
	if err == nil {
		panic("result: Fail called with nil error")
	}
	return Result[T]{err: err}
}

// From converts a conventional (value, error) pair into a Result.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsOk reports whether r carries a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// IsFail reports whether r carries an error.
func (r Result[T]) IsFail() bool { return r.err != nil }

// Err returns the carried error, or nil for Ok.
func (r Result[T]) Err() error { return r.err }

// Value returns the carried value; it is the zero value for Fail.
func (r Result[T]) Value() T { return r.value }

// Unwrap returns the Result as a conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Catch is the method form of the package-level Catch.
func (r Result[T]) Catch(handler func(error) Result[T]) Result[T] {
	return Catch(r, handler)
}

// String renders the Result for debugging.
func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Fail(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// Bind feeds the value of r into f. A failed r is returned unchanged and f is
// not called.
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return f(r.value)
}

// Then runs f only when r succeeded, discarding r's value.
func Then[T, U any](r Result[T], f func() Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return f()
}

// Catch hands the error of a failed r to handler, which may recover into Ok
// or re-wrap into a different Fail. Ok results pass through untouched.
func Catch[T any](r Result[T], handler func(error) Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return handler(r.err)
}

// Map transforms the value of a successful r.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(f(r.value))
}

// MapM applies f to each item in order and collects the values. It stops at
// the first failure and returns it; f is not called for the remaining items.
func MapM[T, U any](items []T, f func(T) Result[U]) Result[[]U] {
	out := make([]U, 0, len(items))
	for _, item := range items {
		r := f(item)
		if r.err != nil {
			return Result[[]U]{err: r.err}
		}
		out = append(out, r.value)
	}
	return Ok(out)
}

// Defer binds a to f and returns a step that can be placed in a chain before
// the predecessor's outcome is known.
func Defer[A, U any](f func(A) Result[U], a A) func() Result[U] {
	return func() Result[U] { return f(a) }
}

// Defer2 is Defer for two bound arguments.
func Defer2[A, B, U any](f func(A, B) Result[U], a A, b B) func() Result[U] {
	return func() Result[U] { return f(a, b) }
}
