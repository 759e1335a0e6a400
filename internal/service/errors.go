package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict")
	ErrInvalidStatus        = errors.New("invalid status transition")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSignupDisabled       = errors.New("signup is disabled")
)

const (
	ExternalDatabase     = "database"
	ExternalBlobStore    = "blob storage"
	ExternalDrafting     = "complaint drafting"
	ExternalVerification = "resolution verification"
)

// ExternalError marks a failure in a collaborator outside the process.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func external(service string, err error) error {
	return &ExternalError{Service: service, Err: err}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
