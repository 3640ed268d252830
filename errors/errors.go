// Package errors provides the unified error taxonomy for ad lifecycle
// operations. It implements structured error types with error codes, HTTP
// status mapping for the monitor API, and retryable detection.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AdError is the unified error type for ad lifecycle failures.
type AdError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Tag identifies the ad placement the error belongs to, if any.
	Tag string `json:"tag,omitempty"`
	// Retryable indicates if a fresh load can be attempted by the caller.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying SDK error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AdError) Error() string {
	switch {
	case e.Tag != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s [tag=%s] (cause: %v)", e.Code, e.Message, e.Tag, e.Cause)
	case e.Tag != "":
		return fmt.Sprintf("%s: %s [tag=%s]", e.Code, e.Message, e.Tag)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause of the error.
func (e *AdError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AdError) WithCause(cause error) *AdError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AdError) WithDetails(details map[string]any) *AdError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AdError) WithDetail(key string, value any) *AdError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AdError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AdError {
	return &AdError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Ad lifecycle constructors ---

// LoadFailed creates a new AdError for a load attempt the SDK rejected.
// The SDK's error is preserved as the cause for diagnostics.
func LoadFailed(tag string, cause error) *AdError {
	return &AdError{
		Code: ErrCodeLoadFailed, Message: "The ad failed to load.",
		Tag: tag, HTTPStatus: http.StatusBadGateway, Retryable: true,
		Cause: cause,
	}
}

// Expired creates a new AdError for a loaded ad that expired before it was shown.
func Expired(tag string) *AdError {
	return &AdError{
		Code: ErrCodeExpired, Message: "The loaded ad expired before presentation.",
		Tag: tag, HTTPStatus: http.StatusGone, Retryable: true,
	}
}

// NoAdLoaded creates a new AdError for a present request issued while no ad
// is ready. This is an expected caller mistake, not a fatal condition.
func NoAdLoaded(tag string) *AdError {
	return &AdError{
		Code: ErrCodeNoAdLoaded, Message: "No ad is loaded for this placement.",
		Tag: tag, HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// ControllerClosed creates a new AdError for an operation on a closed controller.
func ControllerClosed(tag string) *AdError {
	return &AdError{
		Code: ErrCodeControllerClosed, Message: "The ad controller has been closed.",
		Tag: tag, HTTPStatus: http.StatusGone, Retryable: false,
	}
}

// SDKError creates a new AdError for an SDK failure outside the callback paths.
func SDKError(tag, operation string, cause error) *AdError {
	return &AdError{
		Code: ErrCodeSDK, Message: fmt.Sprintf("The ad SDK failed during %s.", operation),
		Tag: tag, HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"operation": operation}, Cause: cause,
	}
}

// --- Placement/configuration constructors ---

// PlacementNotFound creates a new AdError for an unknown placement tag.
func PlacementNotFound(tag string) *AdError {
	return &AdError{
		Code: ErrCodePlacementNotFound, Message: "The requested ad placement is not configured.",
		Tag: tag, HTTPStatus: http.StatusNotFound, Retryable: false,
	}
}

// PlacementExists creates a new AdError for a placement tag registered twice.
func PlacementExists(tag string) *AdError {
	return &AdError{
		Code: ErrCodePlacementExists, Message: "An ad placement with this tag already exists.",
		Tag: tag, HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// InvalidConfig creates a new AdError for an invalid configuration value.
func InvalidConfig(field, reason string) *AdError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AdError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AdError for validation errors.
func Validation(message string) *AdError {
	return &AdError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// --- Monitor API constructors ---

// Unauthorized creates a new AdError for unauthorized access.
func Unauthorized(reason string) *AdError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AdError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidToken creates a new AdError for an invalid authentication token.
func InvalidToken() *AdError {
	return &AdError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Internal creates a new AdError for an unexpected internal error.
func Internal(cause error) *AdError {
	return &AdError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// --- Inspection helpers ---

// Wrap converts any error into an *AdError. An existing AdError anywhere in
// the chain is returned unchanged; anything else becomes an Internal error
// with the original preserved as cause. Wrap(nil) returns nil.
func Wrap(err error) *AdError {
	if err == nil {
		return nil
	}
	var adErr *AdError
	if stderrors.As(err, &adErr) {
		return adErr
	}
	return Internal(err)
}

// CodeOf returns the error code carried by err, or the empty code if err is
// not an AdError.
func CodeOf(err error) ErrorCode {
	var adErr *AdError
	if stderrors.As(err, &adErr) {
		return adErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
