package vault

import (
	"math"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
	"github.com/coffernet/coffer/x"
)

const (
	createVaultCost int64 = 1
	proposalCost    int64 = 1
	approveCost     int64 = 1
	executeBaseCost int64 = 1
	rotateCost      int64 = 1
)

// Executor runs an approved sub operation message. It is usually the
// application router wrapped with HandlerAsExecutor, so that vault
// executions travel through the same dispatch path as transactions.
type Executor func(ctx coffer.Context, store coffer.KVStore, msg coffer.Msg) (*coffer.DeliverResult, error)

// HandlerAsExecutor wraps the message in a synthetic Tx to satisfy the
// Handler interface. A Router and Decorators expose this interface as
// well, so any stack that only cares about the Msg can be wrapped.
func HandlerAsExecutor(h coffer.Handler) Executor {
	return func(ctx coffer.Context, store coffer.KVStore, msg coffer.Msg) (*coffer.DeliverResult, error) {
		return h.Deliver(ctx, store, &execTx{msg: msg})
	}
}

type execTx struct {
	msg coffer.Msg
}

var _ coffer.Tx = (*execTx)(nil)

func (tx *execTx) GetMsg() (coffer.Msg, error) {
	return tx.msg, nil
}

func (tx *execTx) Marshal() ([]byte, error) {
	return tx.msg.Marshal()
}

func (tx *execTx) Unmarshal(data []byte) error {
	return tx.msg.Unmarshal(data)
}

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r coffer.Registry, auth x.Authenticator, executor Executor) {
	vaults := NewVaultBucket()
	proposals := NewProposalBucket()
	r.Handle(pathCreateVault, CreateVaultHandler{auth: auth, vaults: vaults})
	r.Handle(pathCreateProposal, CreateProposalHandler{auth: auth, vaults: vaults, proposals: proposals})
	r.Handle(pathApprove, ApproveHandler{auth: auth, vaults: vaults, proposals: proposals})
	r.Handle(pathExecute, ExecuteHandler{auth: auth, vaults: vaults, proposals: proposals, executor: executor})
	r.Handle(pathRotateOwners, RotateOwnersHandler{auth: auth, vaults: vaults})
}

// RegisterQuery registers queries from buckets in this package.
func RegisterQuery(qr coffer.QueryRouter) {
	NewVaultBucket().Register("vaults", qr)
	NewProposalBucket().Register("proposals", qr)
}

// CreateVaultHandler creates a vault and derives its authority.
type CreateVaultHandler struct {
	auth   x.Authenticator
	vaults VaultBucket
}

var _ coffer.Handler = CreateVaultHandler{}

func (h CreateVaultHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &coffer.CheckResult{GasAllocated: createVaultCost}, nil
}

func (h CreateVaultHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	id, err := h.vaults.idSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire ID")
	}
	_, discriminant, err := deriveAuthority(id)
	if err != nil {
		return nil, err
	}
	vault := &Vault{
		Description:     msg.Description,
		Owners:          msg.Owners,
		Threshold:       msg.Threshold,
		OwnerSetVersion: 0,
		Discriminant:    discriminant,
	}
	if err := h.vaults.Update(db, id, vault); err != nil {
		return nil, err
	}
	return &coffer.DeliverResult{Data: id}, nil
}

func (h CreateVaultHandler) validate(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*CreateVaultMsg, error) {
	var msg CreateVaultMsg
	if err := coffer.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &msg, nil
}

// CreateProposalHandler records a new proposal. Proposing is
// permissionless, but the proposer is recorded and the transaction
// must carry at least one signer to attribute it to.
type CreateProposalHandler struct {
	auth      x.Authenticator
	vaults    VaultBucket
	proposals ProposalBucket
}

var _ coffer.Handler = CreateProposalHandler{}

func (h CreateProposalHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &coffer.CheckResult{GasAllocated: proposalCost}, nil
}

func (h CreateProposalHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	msg, vault, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	proposer := x.MainSigner(ctx, h.auth)

	// The proposer does not approve implicitly. Owners state their
	// approval explicitly, even for their own proposals.
	proposal := &Proposal{
		VaultID:         msg.VaultID,
		Operation:       msg.Operation,
		Approvals:       nil,
		OwnerSetVersion: vault.OwnerSetVersion,
		Executed:        false,
		Proposer:        proposer.Address(),
	}
	id, err := h.proposals.Create(db, proposal)
	if err != nil {
		return nil, err
	}
	return &coffer.DeliverResult{Data: id}, nil
}

func (h CreateProposalHandler) validate(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*CreateProposalMsg, *Vault, error) {
	var msg CreateProposalMsg
	if err := coffer.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	vault, err := h.vaults.GetVault(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, vault, nil
}

// ApproveHandler adds an owner's approval to a proposal.
type ApproveHandler struct {
	auth      x.Authenticator
	vaults    VaultBucket
	proposals ProposalBucket
}

var _ coffer.Handler = ApproveHandler{}

func (h ApproveHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &coffer.CheckResult{GasAllocated: approveCost}, nil
}

func (h ApproveHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	msg, proposal, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Approving twice is a no-op, the proposal stays as is.
	if !proposal.HasApproval(msg.Owner) {
		proposal.Approvals = append(proposal.Approvals, msg.Owner)
		if err := h.proposals.Update(db, msg.ProposalID, proposal); err != nil {
			return nil, err
		}
	}
	return &coffer.DeliverResult{Data: msg.ProposalID}, nil
}

// validate gates an approval. Order matters: a stale proposal is
// rejected before owner membership is looked at, and execution status
// comes last.
func (h ApproveHandler) validate(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*ApproveMsg, *Proposal, error) {
	var msg ApproveMsg
	if err := coffer.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "owner %s did not sign", msg.Owner)
	}
	proposal, err := h.proposals.GetProposal(db, msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	vault, err := h.vaults.GetVault(db, proposal.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if proposal.OwnerSetVersion != vault.OwnerSetVersion {
		return nil, nil, errors.Wrapf(ErrStaleProposal,
			"proposal version %d, vault version %d",
			proposal.OwnerSetVersion, vault.OwnerSetVersion)
	}
	if !vault.IsOwner(msg.Owner) {
		return nil, nil, errors.Wrapf(ErrUnknownOwner, "owner %s", msg.Owner)
	}
	if proposal.Executed {
		return nil, nil, errors.Wrapf(ErrAlreadyExecuted, "proposal %X", msg.ProposalID)
	}
	return &msg, proposal, nil
}

// ExecuteHandler runs a proposal's operation once enough approvals from
// current owners are in.
type ExecuteHandler struct {
	auth      x.Authenticator
	vaults    VaultBucket
	proposals ProposalBucket
	executor  Executor
}

var _ coffer.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	msg, proposal, vault, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	authority := VaultCondition(proposal.VaultID, vault.Discriminant)
	if err := h.checkCapabilities(ctx, authority.Address(), msg, proposal); err != nil {
		return nil, err
	}
	gas := executeBaseCost + int64(len(proposal.Operation.SubOps))
	return &coffer.CheckResult{GasAllocated: gas}, nil
}

func (h ExecuteHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	msg, proposal, vault, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	authority := VaultCondition(proposal.VaultID, vault.Discriminant)
	if err := h.checkCapabilities(ctx, authority.Address(), msg, proposal); err != nil {
		return nil, err
	}
	ctx = withAuthority(ctx, authority)

	// All sub operations and the executed flag commit together or not
	// at all. Without a cache wrappable store the transaction level
	// savepoint provides the same guarantee.
	cstore, ok := db.(coffer.CacheableKVStore)
	if !ok {
		return h.run(ctx, db, msg, proposal)
	}
	cache := cstore.CacheWrap()
	res, err := h.run(ctx, cache, msg, proposal)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if werr := cache.Write(); werr != nil {
		return nil, errors.Wrap(werr, "writing execution")
	}
	return res, nil
}

// run dispatches the sub operations in order and marks the proposal
// executed in the same store.
func (h ExecuteHandler) run(ctx coffer.Context, db coffer.KVStore, msg *ExecuteMsg, proposal *Proposal) (*coffer.DeliverResult, error) {
	res := &coffer.DeliverResult{Data: msg.ProposalID}
	for i, sub := range proposal.Operation.SubOps {
		subRes, err := h.executor(ctx, db, sub.Msg)
		if err != nil {
			return nil, errors.Wrapf(err, "sub operation #%d", i)
		}
		res.Diff = append(res.Diff, subRes.Diff...)
		res.Tags = append(res.Tags, subRes.Tags...)
		res.GasUsed += subRes.GasUsed
	}
	proposal.Executed = true
	if err := h.proposals.Update(db, msg.ProposalID, proposal); err != nil {
		return nil, err
	}
	return res, nil
}

// validate gates execution. Order matters: insufficient approvals are
// reported first, then staleness, then prior execution.
func (h ExecuteHandler) validate(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*ExecuteMsg, *Proposal, *Vault, error) {
	var msg ExecuteMsg
	if err := coffer.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	proposal, err := h.proposals.GetProposal(db, msg.ProposalID)
	if err != nil {
		return nil, nil, nil, err
	}
	vault, err := h.vaults.GetVault(db, proposal.VaultID)
	if err != nil {
		return nil, nil, nil, err
	}
	// Only approvals from the current owner set count. Approvals of
	// rotated-out owners are void even before the staleness check.
	if valid := proposal.ValidApprovals(vault.Owners); uint32(valid) < vault.Threshold {
		return nil, nil, nil, errors.Wrapf(ErrInsufficientApprovals,
			"%d of %d", valid, vault.Threshold)
	}
	if proposal.OwnerSetVersion != vault.OwnerSetVersion {
		return nil, nil, nil, errors.Wrapf(ErrStaleProposal,
			"proposal version %d, vault version %d",
			proposal.OwnerSetVersion, vault.OwnerSetVersion)
	}
	if proposal.Executed {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyExecuted, "proposal %X", msg.ProposalID)
	}
	return &msg, proposal, vault, nil
}

// checkCapabilities ensures every signer capability is covered. A
// signer capability naming the vault authority is scrubbed, execution
// itself provides that signature via the injected condition. Any other
// signer capability must be backed by a transaction signature.
func (h ExecuteHandler) checkCapabilities(ctx coffer.Context, authority coffer.Address, msg *ExecuteMsg, proposal *Proposal) error {
	var caps []Capability
	for _, sub := range proposal.Operation.SubOps {
		caps = append(caps, sub.Capabilities...)
	}
	caps = append(caps, msg.ExtraCaps...)
	for _, c := range caps {
		if !c.Signer || c.Address.Equals(authority) {
			continue
		}
		if !h.auth.HasAddress(ctx, c.Address) {
			return errors.Wrapf(errors.ErrUnauthorized, "signer capability %s not covered", c.Address)
		}
	}
	return nil
}

// RotateOwnersHandler replaces a vault's owner set. Only the vault's
// own authority may call it, so rotations arrive through proposal
// execution.
type RotateOwnersHandler struct {
	auth   x.Authenticator
	vaults VaultBucket
}

var _ coffer.Handler = RotateOwnersHandler{}

func (h RotateOwnersHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &coffer.CheckResult{GasAllocated: rotateCost}, nil
}

func (h RotateOwnersHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	msg, vault, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	vault.Owners = msg.NewOwners
	if msg.NewThreshold != 0 {
		vault.Threshold = msg.NewThreshold
	}
	vault.OwnerSetVersion++
	if err := h.vaults.Update(db, msg.VaultID, vault); err != nil {
		return nil, err
	}
	return &coffer.DeliverResult{Data: msg.VaultID}, nil
}

func (h RotateOwnersHandler) validate(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*RotateOwnersMsg, *Vault, error) {
	var msg RotateOwnersMsg
	if err := coffer.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	vault, err := h.vaults.GetVault(db, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	authority := VaultCondition(msg.VaultID, vault.Discriminant)
	if !h.auth.HasAddress(ctx, authority.Address()) {
		return nil, nil, errors.Wrapf(ErrUnauthorizedCaller, "vault %X", msg.VaultID)
	}
	// The surviving threshold must hold against the new owner set, no
	// silent clamping.
	threshold := msg.NewThreshold
	if threshold == 0 {
		threshold = vault.Threshold
	}
	if err := validateOwners(errors.ErrMsg, msg.NewOwners, threshold); err != nil {
		return nil, nil, err
	}
	if vault.OwnerSetVersion == math.MaxUint32 {
		return nil, nil, errors.Wrap(errors.ErrOverflow, "owner set version")
	}
	return &msg, vault, nil
}
