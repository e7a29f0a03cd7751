package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed           ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMalformedPayload ErrorCode = "VALIDATION_MALFORMED_PAYLOAD"
	ErrorCodeValidationUnauthorized     ErrorCode = "VALIDATION_UNAUTHORIZED"

	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeOrderInvalidTransition ErrorCode = "ORDER_INVALID_TRANSITION"

	// Event Errors (EVENT_*)
	ErrorCodeEventUnmapped ErrorCode = "EVENT_UNMAPPED"

	// Settlement Errors (SETTLEMENT_*)
	ErrorCodeSettlementInvalidConfig ErrorCode = "SETTLEMENT_INVALID_CONFIG"

	// Delivery Errors (DELIVERY_*)
	ErrorCodeDeliveryNotFound     ErrorCode = "DELIVERY_NOT_FOUND"
	ErrorCodeDeliveryInvalidState ErrorCode = "DELIVERY_INVALID_STATE"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound ||
		code == ErrorCodeDeliveryNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationMalformedPayload ||
		code == ErrorCodeValidationUnauthorized
}

// IsNoOp reports whether err describes a callback that is acknowledged without side effects.
func IsNoOp(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound ||
		code == ErrorCodeEventUnmapped ||
		code == ErrorCodeOrderInvalidTransition
}

var (
	ErrValidationFailed   = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrMalformedPayload   = NewDomainError(ErrorCodeValidationMalformedPayload, "malformed webhook payload")
	ErrUnauthorizedSource = NewDomainError(ErrorCodeValidationUnauthorized, "webhook authentication failed")

	ErrOrderNotFound     = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrInvalidTransition = NewDomainError(ErrorCodeOrderInvalidTransition, "order status transition not allowed")

	ErrEventUnmapped = NewDomainError(ErrorCodeEventUnmapped, "gateway event has no internal mapping")

	ErrInvalidFeeConfig = NewDomainError(ErrorCodeSettlementInvalidConfig, "invalid fee configuration")

	ErrDeliveryNotFound     = NewDomainError(ErrorCodeDeliveryNotFound, "delivery job not found")
	ErrDeliveryInvalidState = NewDomainError(ErrorCodeDeliveryInvalidState, "delivery job is not in the expected state")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)

// Plain sentinels for repository layers.
var (
	ErrNoRows           = errors.New("no rows affected")
	ErrBatchNotFound    = errors.New("ticket batch not found")
	ErrBatchSoldOut     = errors.New("ticket batch sold out")
	ErrEndpointNotFound = errors.New("webhook endpoint not found")
)
