package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned by the monitor API.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Tag       string                 `json:"tag,omitempty"`
	Retryable bool                   `json:"retryable"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToResponse converts an AdError to an ErrorResponse for JSON serialization.
func (e *AdError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Tag:       e.Tag,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsAdError checks if an error is an AdError.
func IsAdError(err error) bool {
	var adErr *AdError
	return stderrors.As(err, &adErr)
}

// AsAdError converts an error to an AdError if possible.
func AsAdError(err error) (*AdError, bool) {
	var adErr *AdError
	if stderrors.As(err, &adErr) {
		return adErr, true
	}
	return nil, false
}
