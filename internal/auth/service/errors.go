package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccount       = errors.New("duplicate_account")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrNotActivated           = errors.New("account_not_activated")
	ErrFederatedAccount       = errors.New("federated_account")
	ErrInvalidActivationToken = errors.New("invalid_activation_token")
	ErrInvalidResetToken      = errors.New("invalid_reset_token")
	ErrInvalidRefresh         = errors.New("invalid_refresh_token")
	ErrAccountNotFound        = errors.New("account_not_found")
	ErrPasswordMismatch       = errors.New("password_mismatch")
	ErrInvalidAssertion       = errors.New("invalid_assertion")
)

// NotificationError reports that a flow committed its state changes but could
// not dispatch the follow-up email. Callers should treat the operation as
// successful and surface the delivery problem separately.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
