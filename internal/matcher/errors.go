package matcher

import "errors"

// ErrorKind classifies a failed match request.
type ErrorKind string

const (
	KindEmptyQuery     ErrorKind = "empty_query"
	KindNoDataset      ErrorKind = "no_dataset"
	KindInvalidDataset ErrorKind = "invalid_dataset"
	KindParseFailure   ErrorKind = "parse_failure"
)

// Error is a user-facing failure. Message is safe to show as-is; Err, when
// set, holds the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoDataset)
// holds for every no-dataset failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptyQuery     = &Error{Kind: KindEmptyQuery, Message: "Please enter an error message"}
	ErrNoDataset      = &Error{Kind: KindNoDataset, Message: "Please upload a file first"}
	ErrInvalidDataset = &Error{Kind: KindInvalidDataset, Message: "File must have at least 2 columns (Error Message and at least one Fix column) and at least one data row"}
)

// AsError returns err as an *Error, wrapping anything else as a parse
// failure with the given message.
func AsError(err error, message string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindParseFailure, Message: message, Err: err}
}
