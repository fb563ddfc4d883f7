package jwtx

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrPurpose     = errors.New("jwtx: wrong token purpose")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")

	// ErrMissingSecret is a configuration error: the service cannot sign or
	// verify anything without both purpose secrets, so it is fatal at startup.
	ErrMissingSecret = errors.New("jwtx: signing secret not configured")
)

// Signer issues and verifies signed, time-bound credentials using HMAC-SHA256
// with a distinct secret per purpose. Signature comparison is constant-time
// (delegated to the HMAC primitive inside golang-jwt).
type Signer struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	leeway        time.Duration
}

// NewSigner builds a Signer from the two purpose secrets. Both secrets must
// be present and distinct; sharing one key across purposes would let a
// leaked access key mint refresh credentials.
func NewSigner(issuer string, accessSecret, refreshSecret []byte) (*Signer, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if len(accessSecret) == len(refreshSecret) &&
		subtle.ConstantTimeCompare(accessSecret, refreshSecret) == 1 {
		return nil, errors.New("jwtx: access and refresh secrets must differ")
	}

	return &Signer{
		issuer:        issuer,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		leeway:        30 * time.Second,
	}, nil
}

// IssueAccess mints a short-lived access credential for the account.
func (s *Signer) IssueAccess(accountID string, ttl time.Duration) (string, error) {
	return s.issue(accountID, PurposeAccess, ttl)
}

// IssueRefresh mints a refresh credential for the account. The caller is
// responsible for recording it in the revocation store.
func (s *Signer) IssueRefresh(accountID string, ttl time.Duration) (string, error) {
	return s.issue(accountID, PurposeRefresh, ttl)
}

func (s *Signer) issue(accountID string, purpose Purpose, ttl time.Duration) (string, error) {
	claims := NewClaims(accountID, purpose, ttl, s.issuer, time.Now().UTC())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secretFor(purpose))
}

// Verify validates a credential of the given purpose and returns its claims.
// Errors are normalized to the jwtx sentinel set so callers can branch on
// expiry vs forgery vs garbage without inspecting library internals.
func (s *Signer) Verify(token string, purpose Purpose) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secretFor(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	// A token of the other purpose class fails the signature check already
	// (different secret), but check the claim anyway in case keys are ever
	// shared by misconfiguration.
	if claims.Purpose != purpose {
		return Claims{}, ErrPurpose
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}

func (s *Signer) secretFor(purpose Purpose) []byte {
	if purpose == PurposeRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}
