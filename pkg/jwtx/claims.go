package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default credential TTL constants. Access credentials are short-lived to
// bound the blast radius of a leak; refresh credentials bound how long a
// revocation-store entry has to be kept around.
const (
	// DefaultAccessTokenTTL is the default lifetime for access credentials.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh credentials.
	DefaultRefreshTokenTTL = 24 * time.Hour
)

// Purpose names the class of credential a token belongs to. Each purpose is
// signed with its own secret, so a leaked access key cannot forge refresh
// credentials and vice versa.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

// Claims are the self-contained credential claims: the owning account id
// travels in the registered subject claim, the credential class in purpose.
type Claims struct {
	jwt.RegisteredClaims

	Purpose Purpose `json:"purpose,omitempty"`
}

// AccountID returns the owning account id carried in the subject claim.
func (c *Claims) AccountID() string { return c.Subject }

// NewClaims builds minimally-correct claims for the given purpose.
func NewClaims(subject string, purpose Purpose, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: purpose,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but I'm being lazy and using random.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
