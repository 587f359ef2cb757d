package ledger

import "errors"

// Domain errors returned by the processor and the stores. The HTTP layer maps
// these onto status codes; the core itself never logs or swallows them.
var (
	// ErrAccountNotFound means the account number has no matching record.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount means the amount is missing, zero, or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds means the debit would drive the balance negative.
	// No mutation is performed.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict means the store detected a concurrent modification: the
	// account version changed between the read and the save.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrBusy means the per-account lock could not be acquired before the
	// request context or the lock timeout expired.
	ErrBusy = errors.New("account busy")

	// ErrStorageFailure means the underlying persistence is unavailable.
	// Retryable by the caller; no partial writes have happened.
	ErrStorageFailure = errors.New("storage failure")
)
