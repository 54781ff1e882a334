package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned when an action is triggered with an empty selection.
	ErrNoSelection = errors.New("no selection")

	// ErrBusy is returned when a transformation is already in flight.
	ErrBusy = errors.New("transformation already in progress")

	// ErrUnknownAction is returned for action names outside the supported set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrEmptyText is returned when a request carries no text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidRequest is returned when a request fails validation before the wire.
	ErrInvalidRequest = errors.New("invalid transformation request")

	// ErrTransport is returned when the service cannot be reached.
	ErrTransport = errors.New("transport error")

	// ErrProtocol is returned for non-success statuses and malformed bodies.
	ErrProtocol = errors.New("protocol error")

	// ErrEmptyResult is returned when a well-formed reply carries no result.
	ErrEmptyResult = errors.New("empty result")

	// ErrDocumentMutation is returned when the document rejects an insertion.
	ErrDocumentMutation = errors.New("document mutation failed")
)

// ErrorKind classifies a failed exchange with the transformation service.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindProtocol    ErrorKind = "protocol"
	KindEmptyResult ErrorKind = "empty_result"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindProtocol:
		return ErrProtocol
	case KindEmptyResult:
		return ErrEmptyResult
	}
	return nil
}

// TransformError describes why a transformation exchange failed.
type TransformError struct {
	Kind ErrorKind

	// Status is the HTTP status code, when one was received.
	Status int

	Err error
}

func (e *TransformError) Error() string {
	msg := string(e.Kind)
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *TransformError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewTransformError builds a TransformError of the given kind.
func NewTransformError(kind ErrorKind, status int, err error) *TransformError {
	return &TransformError{Kind: kind, Status: status, Err: err}
}
