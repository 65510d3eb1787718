package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNavigation        ErrorKind = "navigation_error"
	KindElementNotFound   ErrorKind = "element_not_found"
	KindUpload            ErrorKind = "upload_error"
	KindSubmissionTimeout ErrorKind = "submission_timeout"
	KindRemoteService     ErrorKind = "remote_service_error"
	KindUnknown           ErrorKind = "unknown_error"
)

// ApplyError is a classified failure of an apply run. Detail carries
// diagnostic text (e.g. a remote response body) kept out of Error().
type ApplyError struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *ApplyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

func NewApplyError(kind ErrorKind, message string, err error) *ApplyError {
	return &ApplyError{Kind: kind, Message: message, Err: err}
}

// KindOf classifies any error; unclassified errors are unknown_error.
func KindOf(err error) ErrorKind {
	var applyErr *ApplyError
	if errors.As(err, &applyErr) {
		return applyErr.Kind
	}
	return KindUnknown
}
