package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidOTP     = errors.New("invalid otp")
	ErrDeliveryFailed = errors.New("delivery failed")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateAccount is returned when a registration collides with an
// existing account on the same normalized email. The colliding address
// lives in the wrapped error for logs; the Message stays generic so the
// response never echoes more than the client already sent.
func DuplicateAccount(email string) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: account already exists for %s", ErrConflict, email),
		Message: "User already exists with this email",
		Field:   "email",
	}
}

// Unauthorized covers missing, invalid, and expired credentials.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidOTP covers every OTP failure: the message never says whether the
// code was wrong, expired, or never issued.
func InvalidOTP() *AppError {
	return &AppError{
		Err:     ErrInvalidOTP,
		Message: "Invalid or expired OTP",
	}
}

// DeliveryFailed wraps a downstream mail failure. The registration flow
// rolls back the just-created account before returning this.
func DeliveryFailed(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrDeliveryFailed, cause),
		Message: "Failed to send verification email",
	}
}
