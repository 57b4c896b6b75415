// Package apperr defines the error values shared by stores, services and
// handlers. Each sentinel carries the HTTP status and stable code that the
// API error body exposes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Error is an application error with a stable code
type Error struct {
	Code    string
	Status  int
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so copies made by WithMessage
// still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Status == t.Status
}

// WithMessage returns a copy with a caller-facing message
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithDetails returns a copy carrying details for the error body
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of the sentinel that keeps err as its cause
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Sentinel errors
var (
	ErrUnauthorized       = &Error{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "Authentication required"}
	ErrInvalidCredentials = &Error{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrForbidden          = &Error{Code: "FORBIDDEN", Status: http.StatusForbidden, Message: "You do not have permission to perform this action"}
	ErrTenantInactive     = &Error{Code: "TENANT_INACTIVE", Status: http.StatusForbidden, Message: "Tenant is inactive"}
	ErrNotFound           = &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: "Resource not found"}
	ErrTenantNotFound     = &Error{Code: "TENANT_NOT_FOUND", Status: http.StatusNotFound, Message: "Tenant not found"}
	ErrTenantRequired     = &Error{Code: "TENANT_REQUIRED", Status: http.StatusBadRequest, Message: "Tenant could not be determined"}
	ErrValidation         = &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: "Validation failed"}
	ErrConflict           = &Error{Code: "CONFLICT", Status: http.StatusConflict, Message: "Resource already exists"}
	ErrVehicleUnavailable = &Error{Code: "VEHICLE_UNAVAILABLE", Status: http.StatusConflict, Message: "Vehicle is already assigned to another driver"}
	ErrInternal           = &Error{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Message: "Internal server error"}
)

// NotFound names the missing resource, e.g. NotFound("shipment")
func NotFound(resource string) *Error {
	return ErrNotFound.WithMessage("%s not found", resource)
}

// Validation builds a VALIDATION_ERROR for a single field
func Validation(field, message string) *Error {
	return ErrValidation.WithMessage("%s", message).WithDetails(map[string]interface{}{"field": field})
}

// IsDuplicate reports whether err is a unique constraint violation.
// Drivers without error translation still surface their message text.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// FromDB maps a GORM error to an application error. conflictMsg is used for
// unique violations and resource names the thing that was not found.
func FromDB(err error, resource, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource).Wrap(err)
	}
	if IsDuplicate(err) {
		if conflictMsg == "" {
			return ErrConflict.Wrap(err)
		}
		return ErrConflict.WithMessage("%s", conflictMsg).Wrap(err)
	}
	return ErrInternal.Wrap(err)
}

// From converts any error into an *Error, defaulting to INTERNAL_ERROR
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}
