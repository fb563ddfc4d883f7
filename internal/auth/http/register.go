package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

const minPasswordLength = 8

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidJSONBody.WriteError(w)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if !validEmail(req.Email) {
		badRequest("a valid email address is required").WriteError(w)
		return
	}
	if req.Username == "" {
		badRequest("username is required").WriteError(w)
		return
	}
	if len(req.Password) < minPasswordLength {
		badRequest("password must be at least 8 characters").WriteError(w)
		return
	}
	if req.Password != req.ConfirmPassword {
		badRequest("password and confirmation do not match").WriteError(w)
		return
	}

	account, err := h.AuthService.Register(r.Context(), req.Email, req.Username, req.Password)

	// A failed activation email must not fail the registration: the account
	// exists, and the token can be re-requested.
	var notifErr *service.NotificationError
	if errors.As(err, &notifErr) {
		slogx.FromContext(r.Context()).Warn("registered without activation email")
		err = nil
	}
	if err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		ID:    account.ID,
		Email: account.Email,
	})
}
