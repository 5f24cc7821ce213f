package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the uniform failure taxonomy every API error is mapped to.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// ClientError is the single error shape returned by Client. StatusCode is 0
// for failures that never produced an HTTP response.
type ClientError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("apiclient: %s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("apiclient: %s (%d): %s", e.Kind, e.StatusCode, msg)
}

func (e *ClientError) Unwrap() error { return e.Err }

// KindFor maps an HTTP status to a Kind. Status 0 means no response.
func KindFor(status int) Kind {
	switch {
	case status == 0:
		return KindNetwork
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest:
		return KindValidation
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindUnknown
	}
}

// Classify builds the ClientError for a failed call.
func Classify(status int, message string, cause error) *ClientError {
	kind := KindFor(status)
	return &ClientError{
		Kind:       kind,
		Message:    message,
		StatusCode: status,
		Retryable:  kind == KindNetwork || kind == KindServer,
		Err:        cause,
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a
// ClientError. It returns "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a ClientError of KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsRetryable reports whether err is a retryable ClientError.
func IsRetryable(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Retryable
}
