package services

import "errors"

// Failure taxonomy surfaced to handlers. All of these are recoverable
// by retrying the triggering user action.
var (
	// ErrProviderUnavailable: the wallet RPC rejected or could not be
	// reached; no state was changed.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrPersistenceFailure: the chain probe succeeded but the wallet
	// association could not be stored.
	ErrPersistenceFailure = errors.New("failed to persist wallet association")

	// ErrConnectInFlight: a connect attempt for this user is already
	// pending; overlapping attempts are rejected, not raced.
	ErrConnectInFlight = errors.New("wallet connect already in progress")

	// ErrNoWallet: the user has no active wallet association.
	ErrNoWallet = errors.New("no active wallet")

	// ErrForbidden: the caller is not a participant of the requested
	// resource.
	ErrForbidden = errors.New("not a participant")

	// ErrInvalidFilter: the history filter is not one of the known
	// values.
	ErrInvalidFilter = errors.New("unknown transaction filter")
)
