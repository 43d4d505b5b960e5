package vault

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
)

const (
	pathCreateVault    = "vault/create"
	pathCreateProposal = "vault/propose"
	pathApprove        = "vault/approve"
	pathExecute        = "vault/execute"
	pathRotateOwners   = "vault/rotate"

	// maxOwnersAllowed caps the owner set size so a single vault
	// cannot grow beyond what a block can reasonably process.
	maxOwnersAllowed = 100
)

var (
	_ coffer.Msg = (*CreateVaultMsg)(nil)
	_ coffer.Msg = (*CreateProposalMsg)(nil)
	_ coffer.Msg = (*ApproveMsg)(nil)
	_ coffer.Msg = (*ExecuteMsg)(nil)
	_ coffer.Msg = (*RotateOwnersMsg)(nil)
)

// CreateVaultMsg creates a new vault with the given owner set and
// threshold. The creator does not have to be an owner.
type CreateVaultMsg struct {
	Description string           `json:"description"`
	Owners      []coffer.Address `json:"owners"`
	Threshold   uint32           `json:"threshold"`
}

func (m *CreateVaultMsg) Path() string { return pathCreateVault }

func (m *CreateVaultMsg) Validate() error {
	return validateOwners(errors.ErrMsg, m.Owners, m.Threshold)
}

func (m *CreateVaultMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateVaultMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateProposalMsg creates a proposal against a vault. Anyone may
// propose, approvals are what gate execution. The proposal starts with
// no approvals, the proposer included.
type CreateProposalMsg struct {
	VaultID   []byte    `json:"vault_id"`
	Operation Operation `json:"operation"`
}

func (m *CreateProposalMsg) Path() string { return pathCreateProposal }

func (m *CreateProposalMsg) Validate() error {
	if len(m.VaultID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	return m.Operation.Validate()
}

func (m *CreateProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ApproveMsg records an owner's approval on a proposal. The owner must
// have signed the transaction. Approving twice is a no-op.
type ApproveMsg struct {
	ProposalID []byte         `json:"proposal_id"`
	Owner      coffer.Address `json:"owner"`
}

func (m *ApproveMsg) Path() string { return pathApprove }

func (m *ApproveMsg) Validate() error {
	if len(m.ProposalID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	return errors.Wrap(m.Owner.Validate(), "owner")
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ApproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ExecuteMsg runs a proposal's operation. Anyone may execute once the
// approval threshold is met. ExtraCaps lets the caller attach
// capabilities beyond those stored in the proposal, for example a fee
// payer address.
type ExecuteMsg struct {
	ProposalID []byte       `json:"proposal_id"`
	ExtraCaps  []Capability `json:"extra_caps,omitempty"`
}

func (m *ExecuteMsg) Path() string { return pathExecute }

func (m *ExecuteMsg) Validate() error {
	if len(m.ProposalID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	for i, c := range m.ExtraCaps {
		if err := c.Address.Validate(); err != nil {
			return errors.Wrapf(err, "extra capability #%d", i)
		}
	}
	return nil
}

func (m *ExecuteMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ExecuteMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// RotateOwnersMsg replaces a vault's owner set. Only the vault's own
// authority may rotate, so a rotation always arrives as a proposal
// executed by the vault itself. NewThreshold of zero keeps the current
// threshold, which must still be valid against the new owner set.
type RotateOwnersMsg struct {
	VaultID      []byte           `json:"vault_id"`
	NewOwners    []coffer.Address `json:"new_owners"`
	NewThreshold uint32           `json:"new_threshold,omitempty"`
}

func (m *RotateOwnersMsg) Path() string { return pathRotateOwners }

func (m *RotateOwnersMsg) Validate() error {
	if len(m.VaultID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	// Threshold zero means keep the current one. The combination with
	// the current threshold is checked by the handler.
	if m.NewThreshold == 0 {
		return validateOwnerSet(errors.ErrMsg, m.NewOwners)
	}
	return validateOwners(errors.ErrMsg, m.NewOwners, m.NewThreshold)
}

func (m *RotateOwnersMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *RotateOwnersMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// validateOwners returns an error if the given owner set and threshold
// do not form a valid vault configuration. baseErr distinguishes
// message validation from model validation.
func validateOwners(baseErr *errors.Error, owners []coffer.Address, threshold uint32) error {
	if err := validateOwnerSet(baseErr, owners); err != nil {
		return err
	}
	if threshold < 1 || threshold > uint32(len(owners)) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d with %d owners", threshold, len(owners))
	}
	return nil
}

func validateOwnerSet(baseErr *errors.Error, owners []coffer.Address) error {
	switch n := len(owners); {
	case n == 0:
		// No threshold can be satisfied by an empty owner set.
		return errors.Wrap(ErrInvalidThreshold, "no owners")
	case n > maxOwnersAllowed:
		return errors.Wrap(baseErr, "too many owners")
	}
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
		for _, prev := range owners[:i] {
			if prev.Equals(o) {
				return errors.Wrapf(ErrDuplicateOwner, "owner %s", o)
			}
		}
	}
	return nil
}
