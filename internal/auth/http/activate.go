package http

import (
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// ActivateHandler serves GET /v1/auth/activate?token=...
// GET because the link arrives in an email.
type ActivateHandler struct {
	AuthService *service.AuthService
}

func (h *ActivateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		badRequest("token query parameter is required").WriteError(w)
		return
	}

	if err := h.AuthService.Activate(r.Context(), token); err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "active"})
}
