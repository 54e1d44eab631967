package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/cvision/internal/auth/service"
	"github.com/aussiebroadwan/cvision/pkg/authsdk"
	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

// apiError maps a workflow error onto the error body the client sees.
// Anything unrecognised becomes a 500 without detail.
func apiError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrEmailInUse):
		return authsdk.ErrEmailInUse
	case errors.Is(err, service.ErrCodeExpired):
		return authsdk.ErrCodeExpired
	case errors.Is(err, service.ErrIncorrectCode):
		return authsdk.ErrIncorrectCode
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrAccountNotFound):
		return authsdk.ErrAccountNotFound
	case errors.Is(err, service.ErrNotificationFailed):
		return authsdk.ErrNotificationFailed
	case errors.Is(err, service.ErrCacheUnavailable):
		return authsdk.ErrCacheUnavailable
	default:
		return authsdk.ErrServerError
	}
}

// writeServiceError writes err and returns the error code for metrics.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) string {
	apiErr := apiError(err)
	if apiErr == authsdk.ErrServerError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	}
	apiErr.WriteError(w)
	return apiErr.Code
}

// decodeRequest reads the JSON body into dst and runs validate. It writes
// the error response itself and reports whether the handler may go on.
func decodeRequest[T interface{ Validate() map[string]string }](w http.ResponseWriter, r *http.Request, dst *T) (string, bool) {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		authsdk.ErrInvalidRequest.WithDetails(map[string]string{"body": err.Error()}).WriteError(w)
		return authsdk.ErrorCodeInvalidRequest, false
	}
	if errs := (*dst).Validate(); errs != nil {
		authsdk.ErrValidation.WithDetails(errs).WriteError(w)
		return authsdk.ErrorCodeValidation, false
	}
	return "", true
}
