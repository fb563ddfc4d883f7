package domain

import "time"

// TokenPair is what a successful login returns: the short-lived access
// credential and the longer-lived refresh credential, both signed JWTs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access credential lifetime
}

// RefreshSession models the revocation-store entry backing one refresh
// credential. The credential is usable only while its session row exists;
// deleting the row revokes it without touching the credential itself.
type RefreshSession struct {
	TokenHash string // deterministic fingerprint (base64url SHA-256) of the refresh JWT
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}
