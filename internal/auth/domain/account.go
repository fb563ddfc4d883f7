package domain

import "time"

// AccountStatus tracks the activation lifecycle of an account.
type AccountStatus string

const (
	StatusPending AccountStatus = "pending"
	StatusActive  AccountStatus = "active"
)

// Provider marks where an account's identity is vouched for.
type Provider string

const (
	ProviderLocal  Provider = ""
	ProviderGoogle Provider = "google"
)

// TokenPurpose names what the account's single-purpose token slot is
// currently holding. An account has at most one outstanding token at a time;
// issuing a new one overwrites (and thereby invalidates) the previous.
type TokenPurpose string

const (
	TokenPurposeActivation TokenPurpose = "activation"
	TokenPurposeReset      TokenPurpose = "reset"
)

type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // argon2 encoded; empty for federated accounts
	Status       AccountStatus
	Provider     Provider
	// ProviderSubject is the identity provider's stable subject id
	// (nullable for local accounts).
	ProviderSubject *string

	// Single-purpose token slot, shared by activation and password reset.
	// All three fields are set and cleared together.
	TokenHash      *string // deterministic fingerprint (base64url SHA-256)
	TokenPurpose   *TokenPurpose
	TokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Federated reports whether the account's identity is owned by an external
// provider. Federated accounts never authenticate with a password, even if a
// hash were somehow present.
func (a Account) Federated() bool { return a.Provider != ProviderLocal }

// Activated reports whether the account has completed email activation.
func (a Account) Activated() bool { return a.Status == StatusActive }

// Profile is the non-sensitive slice of an account that login responses
// return to the caller.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ProfileOf extracts the public profile fields of an account.
func ProfileOf(a Account) Profile {
	return Profile{ID: a.ID, Email: a.Email, Username: a.Username}
}
