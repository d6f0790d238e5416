package apperrors

import (
	"net/http"
)

/*
Factories and predefined variables for domain errors shared across the
ingestion pipeline and its external collaborators.
*/

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound and friends)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409 AppError.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic conflict factory (409).
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation is the factory for invalid operations (400).
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrExternalService wraps a failure of an external collaborator (502).
func ErrExternalService(err error, domain, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, message, http.StatusBadGateway)
}

// ErrCredentialExpired marks an external collaborator call rejected due to an
// expired credential. Callers wrap collaborator errors in this variant so the
// single-retry policy can match on the Code instead of string-matching
// provider messages.
func ErrCredentialExpired(err error, domain string) *AppError {
	return Wrap(err, CodeCredentialExpired, domain, "Credential expired", http.StatusUnauthorized)
}

// ErrRateLimited marks a 429-class rejection from an external collaborator.
// The extraction pipeline switches to the heuristic fallback on this variant
// instead of retrying.
func ErrRateLimited(err error, domain string) *AppError {
	return Wrap(err, CodeRateLimited, domain, "Rate limited by external service", http.StatusTooManyRequests)
}

// ErrNotConfigured reports that a collaborator is missing credentials. Fatal
// for that collaborator only; the rest of the pipeline keeps operating.
func ErrNotConfigured(domain, message string) *AppError {
	return New(CodeNotConfigured, domain, message, http.StatusServiceUnavailable)
}

// IsCredentialExpired reports whether err (anywhere in its chain) is the
// credential-expired variant.
func IsCredentialExpired(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeCredentialExpired
	}
	return false
}

// IsRateLimited reports whether err is the rate-limited variant.
func IsRateLimited(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeRateLimited
	}
	return false
}
