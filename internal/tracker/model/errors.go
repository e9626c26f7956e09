package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a tracking operation can surface to a user.
type ErrorKind string

const (
	KindInvalidFormat        ErrorKind = "INVALID_FORMAT"
	KindInvalidArgument      ErrorKind = "INVALID_ARGUMENT"
	KindNoActiveSubscription ErrorKind = "NO_ACTIVE_SUBSCRIPTION"
	KindAlreadyTracked       ErrorKind = "ALREADY_TRACKED"
	KindTimeout              ErrorKind = "TIMEOUT"
	KindNetworkUnavailable   ErrorKind = "NETWORK_UNAVAILABLE"
	KindInvalidRequest       ErrorKind = "INVALID_REQUEST"
	KindUnauthorized         ErrorKind = "UNAUTHORIZED"
	KindServerError          ErrorKind = "SERVER_ERROR"
	KindPersistenceError     ErrorKind = "PERSISTENCE_ERROR"
	KindUnknown              ErrorKind = "UNKNOWN"
	KindAttemptInProgress    ErrorKind = "ATTEMPT_IN_PROGRESS"
	KindNotFound             ErrorKind = "NOT_FOUND"
)

var defaultMessages = map[ErrorKind]string{
	KindInvalidFormat:        "HTS code must be 6 or 10 digits",
	KindInvalidArgument:      "Invalid argument",
	KindNoActiveSubscription: "You need an active subscription to add HTS codes",
	KindAlreadyTracked:       "This HTS code is already in your list",
	KindTimeout:              "Request timed out. Please try again.",
	KindNetworkUnavailable:   "Network error. Please check your internet connection.",
	KindInvalidRequest:       "Invalid request: Please check HTS code format and trade type",
	KindUnauthorized:         "Unauthorized: Authentication failed",
	KindServerError:          "Server error: Failed to process trade data",
	KindPersistenceError:     "Failed to save HTS code",
	KindUnknown:              "Failed to process trade data",
	KindAttemptInProgress:    "Another HTS code is already being added, please wait",
	KindNotFound:             "HTS code not found",
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrInvalidFormat        = &TrackingError{Kind: KindInvalidFormat}
	ErrInvalidArgument      = &TrackingError{Kind: KindInvalidArgument}
	ErrNoActiveSubscription = &TrackingError{Kind: KindNoActiveSubscription}
	ErrAlreadyTracked       = &TrackingError{Kind: KindAlreadyTracked}
	ErrTimeout              = &TrackingError{Kind: KindTimeout}
	ErrNetworkUnavailable   = &TrackingError{Kind: KindNetworkUnavailable}
	ErrInvalidRequest       = &TrackingError{Kind: KindInvalidRequest}
	ErrUnauthorized         = &TrackingError{Kind: KindUnauthorized}
	ErrServerError          = &TrackingError{Kind: KindServerError}
	ErrPersistence          = &TrackingError{Kind: KindPersistenceError}
	ErrUnknown              = &TrackingError{Kind: KindUnknown}
	ErrAttemptInProgress    = &TrackingError{Kind: KindAttemptInProgress}
	ErrNotFound             = &TrackingError{Kind: KindNotFound}
)

// TrackingError is a classified failure with a user-facing message and an optional cause.
type TrackingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds a TrackingError. An empty message falls back to the kind's default text.
func NewError(kind ErrorKind, message string, cause error) *TrackingError {
	if message == "" {
		message = defaultMessages[kind]
	}
	return &TrackingError{Kind: kind, Message: message, Err: cause}
}

func (e *TrackingError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Kind]
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TrackingError) Unwrap() error {
	return e.Err
}

// Is matches any TrackingError of the same kind.
func (e *TrackingError) Is(target error) bool {
	t, ok := target.(*TrackingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage is the text shown to the user. Unknown errors append the underlying cause.
func (e *TrackingError) UserMessage() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Kind]
	}
	if e.Kind == KindUnknown && e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// KindOf extracts the kind of a classified error, or KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var te *TrackingError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}
