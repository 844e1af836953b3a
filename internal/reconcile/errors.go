package reconcile

import "errors"

var (
	// ErrInvalidOrExpiredCode is returned for every verification failure
	// mode: missing, expired, wrong, already used. Callers must not be
	// able to tell the difference.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")

	// ErrAlreadyHasPassword rejects setting a password on an account that
	// already carries a password credential.
	ErrAlreadyHasPassword = errors.New("account already has a password credential")

	// ErrAccountNotFound is returned when the trigger account does not
	// exist at the identity backend.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProviderDisabled is returned when the requested identity
	// provider is not enabled in configuration.
	ErrProviderDisabled = errors.New("identity provider not enabled")
)
