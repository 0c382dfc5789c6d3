// Package status carries an error code plus a formatted message from
// any call site in the decision client back to the caller. A *Status is
// also the payload handed to the user's background-error callback.
package status

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the category of a failure.
type ErrorCode string

const (
	// InvalidArgument indicates a nil or empty required argument.
	InvalidArgument ErrorCode = "invalid_argument"

	// InvalidPdf indicates a probability distribution with negative
	// entries, all-zero mass, or normalisation drift beyond tolerance.
	InvalidPdf ErrorCode = "invalid_pdf"

	// JSONParseError indicates a malformed context document, or one
	// whose _slots array precedes its _multi array.
	JSONParseError ErrorCode = "json_parse_error"

	// NotSupported indicates an operation/mode combination the client
	// does not implement.
	NotSupported ErrorCode = "not_supported"

	// BaselineActionsNotDefined indicates an Apprentice-mode multi-slot
	// call without baseline actions.
	BaselineActionsNotDefined ErrorCode = "baseline_actions_not_defined"

	// ModelUpdateError indicates a manual refresh while background
	// refresh is enabled, or a model blob the policy rejected.
	ModelUpdateError ErrorCode = "model_update_error"

	// ContentEncodingError indicates dedup or compression requested
	// under protocol version 1.
	ContentEncodingError ErrorCode = "content_encoding_error"

	// HTTPURINotProvided indicates a sender or transport configured
	// without its endpoint URI.
	HTTPURINotProvided ErrorCode = "http_uri_not_provided"

	// HTTPResponseError indicates a terminal transport-level failure
	// after retry exhaustion.
	HTTPResponseError ErrorCode = "http_response_error"

	// BackgroundQueueOverflow indicates an event discarded because its
	// log queue was full under the Drop policy.
	BackgroundQueueOverflow ErrorCode = "background_queue_overflow"

	// UnhandledBackgroundError is raised on the next foreground call
	// after any unhandled background failure.
	UnhandledBackgroundError ErrorCode = "unhandled_background_error"
)

// Status is the error-status channel of the client. It implements
// error; errors.Is matches two statuses by code alone.
type Status struct {
	Code    ErrorCode
	Message string
}

// New builds a Status from a code and a formatted message.
func New(code ErrorCode, format string, args ...any) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (s *Status) Error() string {
	if s.Message == "" {
		return string(s.Code)
	}
	return string(s.Code) + ": " + s.Message
}

// Is reports whether target is a *Status with the same code.
func (s *Status) Is(target error) bool {
	var other *Status
	if !errors.As(target, &other) {
		return false
	}
	return s.Code == other.Code
}

// CodeOf extracts the ErrorCode from err, or "" when err is nil or not
// a *Status.
func CodeOf(err error) ErrorCode {
	var s *Status
	if errors.As(err, &s) {
		return s.Code
	}
	return ""
}

// From converts an arbitrary error into a *Status, preserving an
// existing one and wrapping anything else under the given code.
func From(err error, code ErrorCode) *Status {
	if err == nil {
		return nil
	}
	var s *Status
	if errors.As(err, &s) {
		return s
	}
	return &Status{Code: code, Message: err.Error()}
}

// ErrorFn is the background-error callback. It is invoked from
// background goroutines for send and model-refresh failures, and from
// the enqueuing caller's goroutine when a full queue drops an event.
type ErrorFn func(*Status)
