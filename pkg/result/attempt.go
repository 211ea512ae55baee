package result

import "fmt"

// PanicError carries a value recovered from a panicking function run through
// Attempt or Try.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the recovered value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Attempt runs f and captures both its returned error and any panic as Fail.
func Attempt[T any](f func() (T, error)) (r Result[T]) {
	defer func() {
		if v := recover(); v != nil {
			r = Fail[T](&PanicError{Value: v})
		}
	}()
	return From(f())
}

// Try is Attempt with one bound argument.
func Try[A, T any](f func(A) (T, error), a A) Result[T] {
	return Attempt(func() (T, error) { return f(a) })
}

// Exec runs an error-only function through Attempt.
func Exec(f func() error) Result[Unit] {
	return Attempt(func() (Unit, error) { return Done, f() })
}
