package httperrors

import (
	"fmt"
	"net/http"

	"github.com/go-openapi/swag"
	"github/chapool/jetton-signer/internal/types"
	"github/chapool/jetton-signer/internal/wallet/failure"
)

// HTTPError is an error with a status code and the JSON body sent to the caller.
type HTTPError struct {
	Code     int
	Body     types.ErrorResponse
	Internal error
}

// NewHTTPError creates an error with a `{success:false, error}` body.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code: code,
		Body: types.ErrorResponse{Success: swag.Bool(false), Error: message},
	}
}

// NewAuthError creates an error with an `{error}` body.
func NewAuthError(code int, message string) *HTTPError {
	return &HTTPError{
		Code: code,
		Body: types.ErrorResponse{Error: message},
	}
}

func (e *HTTPError) Error() string {
	if e.Internal == nil {
		return fmt.Sprintf("HTTPError %d: %s", e.Code, e.Body.Error)
	}
	return fmt.Sprintf("HTTPError %d: %s - %v", e.Code, e.Body.Error, e.Internal)
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// Wrap keeps err as the internal cause for logging.
func (e *HTTPError) Wrap(err error) *HTTPError {
	return &HTTPError{Code: e.Code, Body: e.Body, Internal: err}
}

var (
	ErrAPIKeyRequired    = NewAuthError(http.StatusUnauthorized, "API key required")
	ErrInvalidAPIKey     = NewAuthError(http.StatusForbidden, "Invalid API key")
	ErrRateLimitExceeded = NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
	ErrBadRequestBody    = NewHTTPError(http.StatusBadRequest, "Invalid request body")
)

// FromFailure maps the signer's error taxonomy to a response.
// Guard and validation errors keep their status, everything downstream collapses to 500.
func FromFailure(err error) *HTTPError {
	var httpErr *HTTPError
	switch kind := failure.KindOf(err); kind {
	case failure.KindAuthMissing:
		httpErr = ErrAPIKeyRequired.Wrap(err)
	case failure.KindAuthInvalid:
		httpErr = ErrInvalidAPIKey.Wrap(err)
	case failure.KindRateLimited:
		httpErr = ErrRateLimitExceeded.Wrap(err)
	case failure.KindValidation:
		httpErr = NewHTTPError(http.StatusBadRequest, failure.MessageOf(err)).Wrap(err)
	default:
		httpErr = NewHTTPError(http.StatusInternalServerError, err.Error()).Wrap(err)
	}
	return httpErr
}
