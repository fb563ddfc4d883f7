package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeDuplicateAccount   = "duplicate_account"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeNotActivated       = "account_not_activated"
	ErrorCodeFederatedAccount   = "federated_account"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeServerError        = "server_error"
)

// APIError is the wire shape of every non-2xx response: a stable machine
// code plus a human-readable description.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	ErrInvalidJSONBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request body is not valid JSON",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an unexpected error occurred",
	}
)

// badRequest builds a 400 with a specific description.
func badRequest(description string) *APIError {
	return &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: description,
	}
}

// mapServiceError translates the orchestrator's error taxonomy into wire
// errors. Anything unrecognized is a 500; the request logger has the detail.
func mapServiceError(err error) *APIError {
	switch {
	case errors.Is(err, service.ErrDuplicateAccount):
		return &APIError{http.StatusConflict, ErrorCodeDuplicateAccount, "an account with this email already exists"}
	case errors.Is(err, service.ErrInvalidCredentials):
		return &APIError{http.StatusUnauthorized, ErrorCodeInvalidCredentials, "email or password is incorrect"}
	case errors.Is(err, service.ErrInvalidAssertion):
		return &APIError{http.StatusUnauthorized, ErrorCodeInvalidCredentials, "the identity assertion was rejected"}
	case errors.Is(err, service.ErrNotActivated):
		return &APIError{http.StatusForbidden, ErrorCodeNotActivated, "the account has not been activated"}
	case errors.Is(err, service.ErrFederatedAccount):
		return &APIError{http.StatusForbidden, ErrorCodeFederatedAccount, "this account signs in through its identity provider"}
	case errors.Is(err, service.ErrInvalidActivationToken):
		return &APIError{http.StatusNotFound, ErrorCodeInvalidToken, "the activation token is invalid or expired"}
	case errors.Is(err, service.ErrInvalidResetToken):
		return &APIError{http.StatusForbidden, ErrorCodeInvalidToken, "the reset token is invalid or expired"}
	case errors.Is(err, service.ErrInvalidRefresh):
		return &APIError{http.StatusForbidden, ErrorCodeInvalidToken, "the refresh credential is invalid or revoked"}
	case errors.Is(err, service.ErrAccountNotFound):
		return &APIError{http.StatusNotFound, ErrorCodeNotFound, "no account with this email exists"}
	case errors.Is(err, service.ErrPasswordMismatch):
		return badRequest("password and confirmation do not match")
	default:
		return ErrServerError
	}
}
