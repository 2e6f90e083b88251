// Package errs provides the standardized error types used across the order
// pipeline. Each type follows the same pattern: a sentinel error variable,
// a struct carrying the error details, constructors with and without a cause,
// an Error() method for formatting, and an Unwrap() method returning the
// sentinel so callers can classify with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a missing or malformed required submission field.
	// Hard-blocking on the customer path.
	ErrValidation = errors.New("validation failed")

	// ErrTransfer marks an upload failure (network, quota or permission).
	// Hard-blocking; the caller must retry with a fresh task.
	ErrTransfer = errors.New("transfer failed")

	// ErrNotFound marks an operation against a vanished record.
	ErrNotFound = errors.New("object not found")

	// ErrAdvisoryService marks a failure of an advisory AI collaborator.
	// Logged only; never blocks the primary flow.
	ErrAdvisoryService = errors.New("advisory service failed")

	// ErrSubscription marks a live view that could not attach to the store.
	ErrSubscription = errors.New("subscription failed")
)

// ValidationError reports a required value that is missing or invalid.
type ValidationError struct {
	ParamName string
	Cause     error
}

func NewValidationError(paramName string) *ValidationError {
	return &ValidationError{ParamName: paramName}
}

func NewValidationErrorWithCause(paramName string, cause error) *ValidationError {
	return &ValidationError{ParamName: paramName, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("value is required: %s (cause: %v)", e.ParamName, e.Cause)
	}
	return fmt.Sprintf("value is required: %s", e.ParamName)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransferKind classifies an upload failure.
type TransferKind string

const (
	TransferNetwork    TransferKind = "network"
	TransferQuota      TransferKind = "quota"
	TransferPermission TransferKind = "permission"
)

// TransferError reports a failed blob transfer. Partial bytes at the
// destination are acceptable garbage; no cleanup is performed.
type TransferError struct {
	Object string
	Kind   TransferKind
	Cause  error
}

func NewTransferError(object string, kind TransferKind, cause error) *TransferError {
	return &TransferError{Object: object, Kind: kind, Cause: cause}
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %s (%s) (cause: %v)", e.Object, e.Kind, e.Cause)
}

func (e *TransferError) Unwrap() error { return ErrTransfer }

// NotFoundError reports an operation against a record that no longer exists.
type NotFoundError struct {
	ParamName string
	ID        string
	Cause     error
}

func NewNotFoundError(paramName, id string) *NotFoundError {
	return &NotFoundError{ParamName: paramName, ID: id}
}

func NewNotFoundErrorWithCause(paramName, id string, cause error) *NotFoundError {
	return &NotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("object not found: %s is %s (cause: %v)", e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("object not found: %s is %s", e.ParamName, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AdvisoryServiceError reports a failure of the precheck, summarization or
// answer collaborator.
type AdvisoryServiceError struct {
	Service string
	Cause   error
}

func NewAdvisoryServiceError(service string, cause error) *AdvisoryServiceError {
	return &AdvisoryServiceError{Service: service, Cause: cause}
}

func (e *AdvisoryServiceError) Error() string {
	return fmt.Sprintf("advisory service failed: %s (cause: %v)", e.Service, e.Cause)
}

func (e *AdvisoryServiceError) Unwrap() error { return ErrAdvisoryService }

// SubscriptionError reports a live view that could not attach or lost its
// underlying change stream.
type SubscriptionError struct {
	Collection string
	Cause      error
}

func NewSubscriptionError(collection string, cause error) *SubscriptionError {
	return &SubscriptionError{Collection: collection, Cause: cause}
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription failed: %s (cause: %v)", e.Collection, e.Cause)
}

func (e *SubscriptionError) Unwrap() error { return ErrSubscription }
