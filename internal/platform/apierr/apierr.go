package apierr

import "fmt"

// Error carries the HTTP status and machine-readable code a failure maps to.
// Two errors are considered the same kind when their codes match, so
// package-level sentinels work with errors.Is after wrapping.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Wrap returns a copy of kind with err as its cause.
func Wrap(kind *Error, err error) *Error {
	if kind == nil {
		return nil
	}
	return &Error{Status: kind.Status, Code: kind.Code, Err: err}
}

// Newf returns a copy of kind with a formatted message.
func Newf(kind *Error, format string, args ...any) *Error {
	return Wrap(kind, fmt.Errorf(format, args...))
}
