// Package apperr classifies failures so operation boundaries can log them
// and turn them into plain nil/false results.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Other Kind = iota
	Validation
	NotFound
	Forbidden
	Storage
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Storage:
		return "storage"
	default:
		return "other"
	}
}

// Error records the failing operation and its kind.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error. msg may be an error, a string, or nil.
func E(op string, kind Kind, msg any) error {
	var err error
	switch m := msg.(type) {
	case nil:
	case error:
		err = m
	case string:
		err = errors.New(m)
	default:
		err = fmt.Errorf("%v", m)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
