// Package apperr defines the adapter's error taxonomy. Every error the core
// returns to a caller is an *Error carrying a named code and the status code
// that goes out on the wire.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Named error codes.
const (
	CodeMissingHeader           = "MissingHeader"
	CodeMissingAssessmentGroup  = "MissingAssessmentGroup"
	CodeMissingCitizenID        = "MissingCitizenId"
	CodeMissingAssessmentNumber = "MissingAssessmentNumber"
	CodeMissingField            = "MissingField"
	CodeMissingReference        = "MissingReferentienummer"
	CodeMissingTimestamp        = "MissingTijdstipBericht"
	CodeMissingExtraElements    = "MissingExtraElements"
	CodeAmbiguousAssessment     = "AmbiguousAssessment"
	CodeDuplicateObjection      = "DuplicateObjection"
	CodeUnrecognized            = "Unrecognized"
	CodeMalformed               = "MalformedMessage"
	CodeDownstream              = "DownstreamError"
	CodeSyncFailed              = "SyncFailed"
	CodeRejected                = "RecordRejected"
	CodeInternal                = "Internal"
)

// Error is a classified failure with a wire status.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails attaches diagnostic data that is echoed in the error response.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// New creates an error with an explicit status.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap creates an error around a lower level cause.
func Wrap(code string, status int, message string, err error) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

func BadRequest(code, message string) *Error {
	return New(code, http.StatusBadRequest, message)
}

func NotImplemented(code, message string) *Error {
	return New(code, http.StatusNotImplemented, message)
}

func Internal(code, message string) *Error {
	return New(code, http.StatusInternalServerError, message)
}

func Unavailable(code, message string, err error) *Error {
	return Wrap(code, http.StatusServiceUnavailable, message, err)
}

// MissingField reports a field that is still unset after mapping.
func MissingField(name string) *Error {
	return BadRequest(CodeMissingField+":"+name, "missing required field "+name)
}

// From returns err as an *Error, classifying unknown errors as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, http.StatusInternalServerError, "internal error", err)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
