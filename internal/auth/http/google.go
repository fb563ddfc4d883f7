package http

import (
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
)

// GoogleLoginHandler serves POST /v1/auth/google. The client hands over the
// ID token it obtained from Google's sign-in flow.
type GoogleLoginHandler struct {
	AuthService *service.AuthService
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (h *GoogleLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrInvalidJSONBody.WriteError(w)
		return
	}

	if req.IDToken == "" {
		badRequest("id_token is required").WriteError(w)
		return
	}

	pair, profile, err := h.AuthService.LoginGoogle(r.Context(), req.IDToken)
	if err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	writeCredentials(w, pair, profile, h.AuthService.RefreshCredentialTTL())
}
