package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
	"github.com/gatehouselabs/gatehouse/pkg/httpx"
)

// TokenResponse is the success shape of login, google, and refresh.
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"` // seconds
	Profile      *domain.Profile `json:"profile,omitempty"`
}

// decodeJSON parses a JSON request body into dst, rejecting unknown fields
// and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingBody
	}
	return nil
}

var errTrailingBody = &APIError{
	StatusCode:  http.StatusBadRequest,
	Code:        ErrorCodeInvalidRequest,
	Description: "unexpected data after JSON body",
}

// writeCredentials sends the token pair as JSON and mirrors both credentials
// into cookies for browser clients.
func writeCredentials(w http.ResponseWriter, pair *domain.TokenPair, profile domain.Profile, refreshTTL time.Duration) {
	httpx.SetCredentialCookie(w, httpx.AccessCookieName, pair.AccessToken, pair.ExpiresIn)
	httpx.SetCredentialCookie(w, httpx.RefreshCookieName, pair.RefreshToken, refreshTTL)

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
		Profile:      &profile,
	})
}

// validEmail is a deliberately shallow check; the activation email is the
// real proof of ownership.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
