package http

import (
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout. Always answers 200: logout is
// idempotent, and a client holding a dead credential is already logged out.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := credentialFromRequest(r)

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	httpx.ClearCredentialCookie(w, httpx.AccessCookieName)
	httpx.ClearCredentialCookie(w, httpx.RefreshCookieName)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
