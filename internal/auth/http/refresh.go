package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gatehouselabs/gatehouse/internal/auth/service"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh. The refresh credential comes
// from the JSON body, falling back to the refresh cookie for browser clients.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := credentialFromRequest(r)
	if token == "" {
		(&APIError{
			StatusCode:  http.StatusUnauthorized,
			Code:        ErrorCodeInvalidRequest,
			Description: "a refresh credential is required",
		}).WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		mapServiceError(err).WriteError(w)
		return
	}

	// Only the access credential is new; the refresh cookie stays untouched.
	httpx.SetCredentialCookie(w, httpx.AccessCookieName, pair.AccessToken, pair.ExpiresIn)
	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresIn:   int64(pair.ExpiresIn.Seconds()),
	})
}

// credentialFromRequest pulls the refresh credential from the body when
// present, else from the cookie. An unreadable body counts as absent.
func credentialFromRequest(r *http.Request) string {
	var req refreshRequest
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16)); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	return httpx.CredentialFromCookie(r, httpx.RefreshCookieName)
}
