package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Accounts (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrReceiverNotFound() *AppError {
	return New("ACC_002", "Receiver not found", http.StatusNotFound)
}

func ErrEmailExists() *AppError {
	return New("ACC_003", "Email already registered", http.StatusConflict)
}

// ---- Transfers (TRF) ----

func ErrInsufficientBalance() *AppError {
	return New("TRF_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("TRF_002", "Amount must be positive with at most two decimal places", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("TRF_003", "Sender and receiver must be different accounts", http.StatusBadRequest)
}

func ErrNoteTooLong(maxLen int) *AppError {
	return New("TRF_004", fmt.Sprintf("Note exceeds %d characters", maxLen), http.StatusBadRequest)
}

func ErrIdempotencyKeyTooLong() *AppError {
	return New("TRF_005", "Idempotency key too long", http.StatusBadRequest)
}

// ---- Actor identity (ACT) ----

func ErrActorRequired() *AppError {
	return New("ACT_001", "Actor identity missing or malformed", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorageFailure(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// ErrConcurrencyConflict is returned when the database aborts the unit of
// work due to a serialization failure or detected deadlock.
func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("SYS_003", "Concurrent update conflict, retry the transfer", http.StatusConflict, err)
}

// ErrInconsistentState is returned when rolling back a partially applied
// transfer fails. Balance correctness can no longer be asserted and the
// condition must never be reported as success.
func ErrInconsistentState(err error) *AppError {
	return Wrap("SYS_004", "Transfer left in indeterminate state, manual reconciliation required", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a TRF_002-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("TRF_002", message, http.StatusBadRequest)
}
