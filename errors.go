package persist

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a type has no stored data. It is returned only by
// APIs that must distinguish "no data" from "empty data"; the default load
// path treats missing data as "keep defaults" and never surfaces it.
var ErrNotFound = errors.New("persist: no stored data")

// IOError wraps a file read, write or directory creation failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// SerializationError wraps an encode or decode failure and records which
// codec produced it.
type SerializationError struct {
	Codec string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("persist: %s codec: %v", e.Codec, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

func serErr(codec string, err error) error {
	return &SerializationError{Codec: codec, Err: err}
}
