package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrForbidden is returned by admin operations when the session lacks
	// the ADMIN role.
	ErrForbidden = errors.New("admin role required")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not signed in")
)

// ValidationError reports input rejected before any network call. Fields
// maps the wire name of each offending field to its message.
type ValidationError struct {
	Fields map[string]string
	order  []string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.order))
	for _, f := range e.order {
		msgs = append(msgs, e.Fields[f])
	}
	return strings.Join(msgs, "; ")
}

// ParseError reports a persisted session value that could not be decoded.
// It is recovered by clearing the session and never reaches the user.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse persisted %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
