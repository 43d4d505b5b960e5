package vault

import (
	"github.com/coffernet/coffer/errors"
)

// vault reserves the error code range 1200-1299.
var (
	// ErrInvalidThreshold is returned when a threshold is zero or
	// greater than the number of owners it applies to.
	ErrInvalidThreshold = errors.Register(1200, "invalid threshold")

	// ErrDuplicateOwner is returned when an owner set contains the same
	// address more than once.
	ErrDuplicateOwner = errors.Register(1201, "duplicate owner")

	// ErrUnknownOwner is returned when an address is not a member of
	// the vault's current owner set.
	ErrUnknownOwner = errors.Register(1202, "unknown owner")

	// ErrStaleProposal is returned when a proposal was created against
	// an owner set that has since been rotated.
	ErrStaleProposal = errors.Register(1203, "stale proposal")

	// ErrAlreadyExecuted is returned when a proposal was executed
	// before.
	ErrAlreadyExecuted = errors.Register(1204, "already executed")

	// ErrInsufficientApprovals is returned when a proposal does not
	// carry enough approvals from current owners to be executed.
	ErrInsufficientApprovals = errors.Register(1205, "insufficient approvals")

	// ErrUnauthorizedCaller is returned when an operation reserved for
	// the vault authority is attempted by anyone else.
	ErrUnauthorizedCaller = errors.Register(1206, "unauthorized caller")

	// ErrDerivationExhausted is returned when no discriminant produces
	// a usable authority address for a vault.
	ErrDerivationExhausted = errors.Register(1207, "authority derivation exhausted")
)
