// Package errors provides the unified error taxonomy for ad lifecycle
// operations: structured error types with machine-readable codes, preserved
// SDK causes, HTTP status mapping, and retryable detection.
package errors
