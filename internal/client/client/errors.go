package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// TransportError reports a request that never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrUnavailable }

// ResponseError reports a non-success HTTP status. Detail is the server's
// structured error message when one was sent.
type ResponseError struct {
	Op     string
	Status int
	Detail string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Detail)
}

func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnavailable:
		return e.Status >= 500
	}
	return false
}

// IsRetryable reports whether err may succeed on a second attempt:
// transport failures other than caller cancellation, and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return !errors.Is(err, context.Canceled)
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Status >= 500
	}
	return false
}

// Detail returns the human-readable reason carried by err: the server
// detail for a ResponseError, otherwise err's message.
func Detail(err error) string {
	var re *ResponseError
	if errors.As(err, &re) && re.Detail != "" {
		return re.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
