package schedule

import "errors"

// Kind classifies a schedule operation failure. The HTTP boundary maps kinds
// to status codes; this package never does.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return "schedule error"
}

func (e *Error) Unwrap() error {
	return e.cause
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflictError(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func internalError(err error) error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: err}
}

// KindOf extracts the failure kind; unrecognized errors count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
