package service

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for display and exit codes.
type Kind int

// Failure kinds.
const (
	TransportFailure Kind = iota + 1
	AuthFailure
	ValidationFailure
	NotFoundFailure
	UnsupportedFailure
)

func (k Kind) String() string {
	switch k {
	case TransportFailure:
		return "transport"
	case AuthFailure:
		return "auth"
	case ValidationFailure:
		return "validation"
	case NotFoundFailure:
		return "not found"
	case UnsupportedFailure:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Sentinels matched with errors.Is against any *Failure of the same kind.
var (
	ErrTransport   = errors.New("transport failure")
	ErrAuth        = errors.New("auth failure")
	ErrValidation  = errors.New("validation failure")
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("not supported by backend")
)

// Failure is the error type returned by stores and the repository.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel for the failure's kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTransport:
		return f.Kind == TransportFailure
	case ErrAuth:
		return f.Kind == AuthFailure
	case ErrValidation:
		return f.Kind == ValidationFailure
	case ErrNotFound:
		return f.Kind == NotFoundFailure
	case ErrUnsupported:
		return f.Kind == UnsupportedFailure
	}
	return false
}

// Transport wraps err as a TransportFailure.
func Transport(op string, err error) error { return &Failure{Kind: TransportFailure, Op: op, Err: err} }

// Auth wraps err as an AuthFailure.
func Auth(op string, err error) error { return &Failure{Kind: AuthFailure, Op: op, Err: err} }

// Validation wraps err as a ValidationFailure.
func Validation(op string, err error) error {
	return &Failure{Kind: ValidationFailure, Op: op, Err: err}
}

// NotFound returns a NotFoundFailure for the given id.
func NotFound(op, id string) error {
	return &Failure{Kind: NotFoundFailure, Op: op, Err: fmt.Errorf("task not found: %s", id)}
}

// Unsupported returns an UnsupportedFailure.
func Unsupported(op string) error { return &Failure{Kind: UnsupportedFailure, Op: op} }

// KindOf returns the failure kind of err. Errors that are not failures are
// treated as transport failures.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return TransportFailure
}

// Classify wraps an arbitrary error from a backend. Existing failures pass
// through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transport(op, fmt.Errorf("request timed out"))
	}
	return Transport(op, err)
}
