package types

import (
	"errors"
	"fmt"
)

// Fatal build conditions. Every *Error carries exactly one of these as Kind.
var (
	ErrMissingTemplate   = errors.New("MissingTemplate")
	ErrAmbiguousTemplate = errors.New("AmbiguousTemplate")
	ErrMalformedTemplate = errors.New("MalformedTemplate")
	ErrExecutionFailed   = errors.New("ExecutionFailed")
	ErrPackagingFailed   = errors.New("PackagingFailed")
)

// Error attributes a fatal condition to the directory or document that caused it.
type Error struct {
	Kind error
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Path != "" {
		s += ": " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Is matches the condition kind so callers can use errors.Is(err, ErrMissingTemplate).
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind error, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}

// KindOf returns the condition kind of err, or nil when err is not a build condition.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
