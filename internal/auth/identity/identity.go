// Package identity abstracts external identity providers. A provider takes
// the opaque assertion the client obtained out-of-band (for Google, the ID
// token from the sign-in widget) and resolves it into a verified identity.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidAssertion means the provider rejected the assertion: bad
	// signature, wrong audience, expired, or otherwise not vouched for.
	ErrInvalidAssertion = errors.New("identity: invalid assertion")

	// ErrUnverifiedEmail means the assertion was genuine but the provider has
	// not verified the email it carries, so it cannot anchor an account.
	ErrUnverifiedEmail = errors.New("identity: email not verified")
)

// Identity is what a provider vouches for after verifying an assertion.
type Identity struct {
	// Subject is the provider's stable user id. Emails can change or be
	// recycled; the subject never does.
	Subject string
	Email   string
	Name    string
}

// Provider verifies assertions from one external identity provider.
type Provider interface {
	// Name returns the provider's stable short name, e.g. "google".
	Name() string

	// Verify checks the assertion with the provider and returns the identity
	// it vouches for. Returns ErrInvalidAssertion or ErrUnverifiedEmail on
	// rejection; any other error is a transport failure.
	Verify(ctx context.Context, assertion string) (Identity, error)
}
