package arena

import (
	"errors"
	"fmt"
)

// Business error kinds. Handlers match these with errors.Is to pick a status
// code; anything wrapping ErrStorage is an infrastructure failure and safe to
// retry, the other three are terminal for the request.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrStorage      = errors.New("storage failure")
)

type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.err }

func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func InvalidStatef(format string, args ...any) error {
	return &kindError{kind: ErrInvalidState, msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a driver error so callers can distinguish infrastructure
// failures from business rejections without losing the cause.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrStorage, msg: op, err: err}
}
