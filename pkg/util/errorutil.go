package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/online-booking/booking-service/internal/domain"
)

// Error codes returned to clients.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeDuplicateIdentity    = "DUPLICATE_IDENTITY"
	CodeAuthentication       = "AUTHENTICATION_FAILED"
	CodeMissingCredential    = "MISSING_CREDENTIAL"
	CodeInvalidCredential    = "INVALID_CREDENTIAL"
	CodeExpiredCredential    = "EXPIRED_CREDENTIAL"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnsupportedMediaType(message string) error {
	return NewDomainError(CodeUnsupportedMediaType, message, http.StatusUnsupportedMediaType, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Unknown errors become
// INTERNAL_ERROR with a generic message; the cause stays in Err for logging.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		details := make(map[string]any, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		return NewDomainError(CodeValidation, "invalid input", http.StatusBadRequest, details)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return NewDomainError(CodeValidation, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return NewDomainError(CodeDuplicateIdentity, domain.ErrDuplicateIdentity.Error(), http.StatusConflict, nil)
	case errors.Is(err, domain.ErrAuthentication):
		return NewDomainError(CodeAuthentication, domain.ErrAuthentication.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrMissingCredential):
		return NewDomainError(CodeMissingCredential, domain.ErrMissingCredential.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrExpiredCredential):
		return NewDomainError(CodeExpiredCredential, domain.ErrExpiredCredential.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrInvalidCredential):
		return NewDomainError(CodeInvalidCredential, domain.ErrInvalidCredential.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, domain.ErrForbidden):
		return NewDomainError(CodeForbidden, domain.ErrForbidden.Error(), http.StatusForbidden, nil)
	case errors.Is(err, domain.ErrNotFound):
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func fromFiberError(err *fiber.Error) *DomainError {
	code := CodeInternal
	message := err.Message
	switch err.Code {
	case http.StatusBadRequest:
		code = CodeValidation
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	case http.StatusUnsupportedMediaType:
		code = CodeUnsupportedMediaType
	default:
		if err.Code < 500 {
			code = http.StatusText(err.Code)
		} else {
			message = "internal server error"
		}
	}
	return NewDomainError(code, message, err.Code, nil)
}

func MapError(err error) error {
	return ToDomainError(err)
}
