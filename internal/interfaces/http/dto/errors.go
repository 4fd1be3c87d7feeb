package dto

import (
	"net/http"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
)

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when request binding fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource and rate limiting error codes
const (
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeUnavailable is used when a dependency is down
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Catalogue pipeline error codes. They are the domain kinds, passed through
// unchanged so clients can branch on them.
const (
	ErrCodeInvalidRequest    = catalogue.CodeInvalidRequest
	ErrCodeEmptySelection    = catalogue.CodeEmptySelection
	ErrCodeRenderFailure     = catalogue.CodeRenderFailure
	ErrCodeInvalidRecipients = catalogue.CodeInvalidRecipients
	ErrCodeDeliveryFailure   = catalogue.CodeDeliveryFailure
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeRateLimited: http.StatusTooManyRequests,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeInvalidRequest:    http.StatusBadRequest,
	ErrCodeInvalidRecipients: http.StatusBadRequest,
	ErrCodeEmptySelection:    http.StatusNotFound,
	ErrCodeRenderFailure:     http.StatusInternalServerError,
	ErrCodeDeliveryFailure:   http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the short codes some middleware emits to the
// standardized ones
var LegacyErrorCodeMapping = map[string]string{
	"BAD_REQUEST":         ErrCodeBadRequest,
	"VALIDATION_ERROR":    ErrCodeValidation,
	"INTERNAL_ERROR":      ErrCodeInternal,
	"REQUEST_TOO_LARGE":   ErrCodeRequestTooLarge,
	"RATE_LIMIT_EXCEEDED": ErrCodeRateLimited,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
