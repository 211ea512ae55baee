package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrExists        = errors.New("entity already exists")
	ErrFileSystem    = errors.New("filesystem error")
	ErrInvalidOption = errors.New("invalid option")
)

// NotFoundError reports a missing entity directory.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExistsError reports a create over an existing entity directory.
type ExistsError struct {
	Kind string
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

func (e *ExistsError) Is(target error) bool { return target == ErrExists }

// FileSystemError wraps a failed directory or file operation.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

func (e *FileSystemError) Is(target error) bool { return target == ErrFileSystem }

// InvalidOptionError reports a caller-supplied value that cannot be used.
type InvalidOptionError struct {
	Option string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Option, e.Value, e.Reason)
}

func (e *InvalidOptionError) Is(target error) bool { return target == ErrInvalidOption }
