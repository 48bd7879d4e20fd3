package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking service.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrGateway               = errors.New("payment gateway error")
	ErrMalformedMetadata     = errors.New("malformed metadata")
	ErrPersistence           = errors.New("persistence error")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidStatus         = fmt.Errorf("invalid reservation status: %w", ErrInvalidInput)
	ErrInvalidReservationID  = fmt.Errorf("invalid reservation id: %w", ErrInvalidInput)
	ErrInvalidUserID         = fmt.Errorf("invalid user id: %w", ErrInvalidInput)
	ErrInvalidPrestationID   = fmt.Errorf("invalid prestation id: %w", ErrInvalidInput)
	ErrInvalidServiceConfig  = errors.New("invalid service config")
	ErrPriceMismatch         = errors.New("price does not match catalog")
	ErrUnknownPrestation     = errors.New("unknown prestation")
	ErrReservationsFinalized = errors.New("reservations already finalized")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}

// Classify returns the domain sentinel carried by err, or nil when err is not a booking error.
func Classify(err error) error {
	for _, sentinel := range []error{
		ErrAuthenticationFailed,
		ErrMalformedMetadata,
		ErrNotFound,
		ErrInvalidTransition,
		ErrGateway,
		ErrPersistence,
		ErrInvalidInput,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
