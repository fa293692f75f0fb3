// Package store holds insertion-ordered record collections. A collection
// owns its identifier sequence: the identifier of a new record is assigned
// in the same step that appends it.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable marks a transient backend failure. Nothing was
	// appended, so the insert may be retried.
	ErrUnavailable = errors.New("store unavailable")
)

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Sequence formats identifiers as a prefix followed by a zero-padded counter.
type Sequence struct {
	Prefix string
	Width  int
}

// Format returns the identifier for the n-th record, e.g. APT004.
func (s Sequence) Format(n int) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.Width, n)
}

// Collection is an ordered set of records of one type.
type Collection[T any] interface {
	// Insert reserves the next identifier, builds the record with it and
	// appends the result. If build fails nothing is appended and the
	// identifier is not consumed.
	Insert(ctx context.Context, build func(id string) (T, error)) (T, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	Len(ctx context.Context) (int, error)
}
