package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Ad lifecycle errors
const (
	// ErrCodeLoadFailed indicates the SDK reported a failed load attempt.
	ErrCodeLoadFailed ErrorCode = "AD_LOAD_FAILED"
	// ErrCodeExpired indicates a previously loaded ad expired before presentation.
	ErrCodeExpired ErrorCode = "AD_EXPIRED"
	// ErrCodeNoAdLoaded indicates a present was requested while no ad was ready.
	ErrCodeNoAdLoaded ErrorCode = "NO_AD_LOADED"
	// ErrCodeControllerClosed indicates an operation on a closed controller.
	ErrCodeControllerClosed ErrorCode = "CONTROLLER_CLOSED"
)

// Placement/configuration errors
const (
	// ErrCodePlacementNotFound indicates the requested placement tag is not configured.
	ErrCodePlacementNotFound ErrorCode = "PLACEMENT_NOT_FOUND"
	// ErrCodePlacementExists indicates the placement tag is already configured.
	ErrCodePlacementExists ErrorCode = "PLACEMENT_EXISTS"
	// ErrCodeInvalidConfig indicates a configuration value is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Authentication errors (monitor API)
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidToken indicates the authentication token is invalid.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeSDK indicates an error from the underlying ad SDK outside the
	// load/present callback paths (e.g. handle creation).
	ErrCodeSDK ErrorCode = "SDK_ERROR"
)

// A load failure or expiry resets the controller to its unloaded state,
// so the caller can issue a fresh load.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeLoadFailed: true,
	ErrCodeExpired:    true,
	ErrCodeSDK:        true,
	ErrCodeInternal:   false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
