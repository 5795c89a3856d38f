package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrUnsupportedCommand(command string) *AppError {
	return &AppError{Code: "UNSUPPORTED_COMMAND", Message: fmt.Sprintf("unsupported command: %s", command), Status: 400}
}

func ErrInconsistentOperation(msg string) *AppError {
	return &AppError{Code: "INCONSISTENT_OPERATION", Message: msg, Status: 400}
}

func ErrInsufficientFunds() *AppError {
	return &AppError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds", Status: 400}
}

func ErrOriginalNotFound(reference string) *AppError {
	return &AppError{Code: "ORIGINAL_NOT_FOUND", Message: fmt.Sprintf("original transaction %s not found", reference), Status: 404}
}

// ErrAlreadyCancelled signals a cancelled original whose reversal entry could
// not be located. A clean double-cancel is not an error; it replays the prior
// reversal result.
func ErrAlreadyCancelled(reference string) *AppError {
	return &AppError{Code: "ALREADY_CANCELLED", Message: fmt.Sprintf("transaction %s is cancelled but its reversal is missing", reference), Status: 409}
}

func ErrAccountNotFound(id string) *AppError {
	return &AppError{Code: "ACCOUNT_NOT_FOUND", Message: fmt.Sprintf("account %s not found", id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
