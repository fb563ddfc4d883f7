package http

import (
	"net/http"
	"strings"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidJSONBody.WriteError(w)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		badRequest("email and password are required").WriteError(w)
		return
	}

	pair, profile, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	writeCredentials(w, pair, profile, h.AuthService.RefreshCredentialTTL())
}
