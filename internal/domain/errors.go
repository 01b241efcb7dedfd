package domain

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotPending          = errors.New("transaction is not pending")
	ErrGateway             = errors.New("gateway error")
)

// ValidationError carries a message meant for the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}
