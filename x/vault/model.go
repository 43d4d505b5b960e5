package vault

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
	"github.com/coffernet/coffer/orm"
)

const (
	// VaultBucketName is where vaults are stored.
	VaultBucketName = "vaults"
	// ProposalBucketName is where proposals are stored.
	ProposalBucketName = "props"
	// SequenceName is the auto-increment ID counter used by both
	// buckets.
	SequenceName = "id"
)

// Vault is a set of owner addresses guarded by an approval threshold.
// Funds and privileges are bound to the vault's authority condition,
// not to any individual owner.
type Vault struct {
	// Description is a human readable label, optional.
	Description string `json:"description"`
	// Owners are the addresses allowed to approve proposals. The set
	// is free of duplicates and never empty.
	Owners []coffer.Address `json:"owners"`
	// Threshold is how many owner approvals a proposal needs before it
	// can be executed. Always 1 <= Threshold <= len(Owners).
	Threshold uint32 `json:"threshold"`
	// OwnerSetVersion counts owner set rotations. A proposal records
	// the version it was created under and becomes stale once the
	// vault's version moves past it.
	OwnerSetVersion uint32 `json:"owner_set_version"`
	// Discriminant is the byte that, combined with the vault ID,
	// produced a usable authority address. Fixed at creation.
	Discriminant byte `json:"discriminant"`
}

var _ orm.CloneableData = (*Vault)(nil)

func (v *Vault) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(v)
}

func (v *Vault) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, v)
}

func (v *Vault) Validate() error {
	return validateOwners(errors.ErrModel, v.Owners, v.Threshold)
}

func (v *Vault) Copy() orm.CloneableData {
	owners := make([]coffer.Address, len(v.Owners))
	for i, o := range v.Owners {
		owners[i] = o.Clone()
	}
	return &Vault{
		Description:     v.Description,
		Owners:          owners,
		Threshold:       v.Threshold,
		OwnerSetVersion: v.OwnerSetVersion,
		Discriminant:    v.Discriminant,
	}
}

// IsOwner reports whether addr belongs to the current owner set.
func (v *Vault) IsOwner(addr coffer.Address) bool {
	for _, o := range v.Owners {
		if o.Equals(addr) {
			return true
		}
	}
	return false
}

// Proposal is an operation waiting for owner approvals. It is bound to
// the owner set version it was created under and can be executed at
// most once.
type Proposal struct {
	// VaultID references the vault this proposal belongs to.
	VaultID []byte `json:"vault_id"`
	// Operation is what gets executed once enough owners approve.
	Operation Operation `json:"operation"`
	// Approvals are the owner addresses that approved so far. Free of
	// duplicates, in approval order.
	Approvals []coffer.Address `json:"approvals"`
	// OwnerSetVersion is the vault's owner set version at creation
	// time.
	OwnerSetVersion uint32 `json:"owner_set_version"`
	// Executed is set once the operation ran successfully.
	Executed bool `json:"executed"`
	// Proposer is the address that created the proposal. Recorded for
	// accountability, it grants no special rights.
	Proposer coffer.Address `json:"proposer"`
}

var _ orm.CloneableData = (*Proposal)(nil)

func (p *Proposal) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(p)
}

func (p *Proposal) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, p)
}

func (p *Proposal) Validate() error {
	if len(p.VaultID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "vault id")
	}
	if err := p.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	return p.Operation.Validate()
}

func (p *Proposal) Copy() orm.CloneableData {
	approvals := make([]coffer.Address, len(p.Approvals))
	for i, a := range p.Approvals {
		approvals[i] = a.Clone()
	}
	return &Proposal{
		VaultID:         append([]byte(nil), p.VaultID...),
		Operation:       p.Operation.Copy(),
		Approvals:       approvals,
		OwnerSetVersion: p.OwnerSetVersion,
		Executed:        p.Executed,
		Proposer:        p.Proposer.Clone(),
	}
}

// HasApproval reports whether addr already approved this proposal.
func (p *Proposal) HasApproval(addr coffer.Address) bool {
	for _, a := range p.Approvals {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}

// ValidApprovals counts approvals that belong to the given owner set.
// Approvals from addresses outside the set do not count.
func (p *Proposal) ValidApprovals(owners []coffer.Address) int {
	var cnt int
	for _, a := range p.Approvals {
		for _, o := range owners {
			if a.Equals(o) {
				cnt++
				break
			}
		}
	}
	return cnt
}

// Operation is the payload of a proposal. Target is an opaque label
// describing what the operation is for, SubOps are the messages that
// run under the vault authority at execution time.
type Operation struct {
	Target string  `json:"target"`
	SubOps []SubOp `json:"sub_ops"`
}

func (o Operation) Validate() error {
	if len(o.SubOps) == 0 {
		return errors.Wrap(errors.ErrEmpty, "sub operations")
	}
	for i, s := range o.SubOps {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "sub operation #%d", i)
		}
	}
	return nil
}

func (o Operation) Copy() Operation {
	subs := make([]SubOp, len(o.SubOps))
	copy(subs, o.SubOps)
	return Operation{Target: o.Target, SubOps: subs}
}

// SubOp is a single message dispatched during execution. Path is the
// declared route and must match the message's own path, so that a
// reader of the stored proposal can tell what it will do without
// decoding the message.
type SubOp struct {
	Path         string       `json:"path"`
	Msg          coffer.Msg   `json:"msg"`
	Capabilities []Capability `json:"capabilities"`
}

func (s SubOp) Validate() error {
	if s.Msg == nil {
		return errors.Wrap(errors.ErrEmpty, "message")
	}
	if s.Path != s.Msg.Path() {
		return errors.Wrapf(errors.ErrMsg, "declared path %q, message path %q", s.Path, s.Msg.Path())
	}
	if err := s.Msg.Validate(); err != nil {
		return errors.Wrap(err, "message")
	}
	for i, c := range s.Capabilities {
		if err := c.Address.Validate(); err != nil {
			return errors.Wrapf(err, "capability #%d", i)
		}
	}
	return nil
}

// Capability declares how an address takes part in a sub operation.
// Signer capabilities naming the vault authority are scrubbed at
// execution time and replaced by the injected authority condition.
type Capability struct {
	Address coffer.Address `json:"address"`
	Writer  bool           `json:"writer"`
	Signer  bool           `json:"signer"`
}

// VaultBucket is a type-safe wrapper around orm.Bucket.
type VaultBucket struct {
	orm.Bucket
	idSeq orm.Sequence
}

// NewVaultBucket initializes a VaultBucket with the default name.
func NewVaultBucket() VaultBucket {
	b := orm.NewBucket(VaultBucketName, orm.NewSimpleObj(nil, new(Vault)))
	return VaultBucket{
		Bucket: b,
		idSeq:  b.Sequence(SequenceName),
	}
}

// Update persists a vault under the given ID. The ID is assigned by
// the handler before the vault exists, the authority derives from it.
func (b VaultBucket) Update(db coffer.KVStore, id []byte, v *Vault) error {
	return b.Save(db, orm.NewSimpleObj(id, v))
}

// GetVault returns the vault with the given ID.
func (b VaultBucket) GetVault(db coffer.ReadOnlyKVStore, id []byte) (*Vault, error) {
	obj, err := b.Get(db, id)
	if err != nil {
		return nil, errors.Wrap(err, "bucket lookup")
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "vault %X", id)
	}
	v, ok := obj.Value().(*Vault)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return v, nil
}

// ProposalBucket is a type-safe wrapper around orm.Bucket. Proposals
// are indexed by the vault they belong to.
type ProposalBucket struct {
	orm.Bucket
	idSeq orm.Sequence
}

// NewProposalBucket initializes a ProposalBucket with the default name.
func NewProposalBucket() ProposalBucket {
	b := orm.NewBucket(ProposalBucketName, orm.NewSimpleObj(nil, new(Proposal))).
		WithIndex("vault", byVaultID, false)
	return ProposalBucket{
		Bucket: b,
		idSeq:  b.Sequence(SequenceName),
	}
}

// Create assigns the next free ID to the proposal and saves it.
func (b ProposalBucket) Create(db coffer.KVStore, p *Proposal) ([]byte, error) {
	id, err := b.idSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire ID")
	}
	if err := b.Save(db, orm.NewSimpleObj(id, p)); err != nil {
		return nil, err
	}
	return id, nil
}

// Update persists changes to an existing proposal.
func (b ProposalBucket) Update(db coffer.KVStore, id []byte, p *Proposal) error {
	return b.Save(db, orm.NewSimpleObj(id, p))
}

// GetProposal returns the proposal with the given ID.
func (b ProposalBucket) GetProposal(db coffer.ReadOnlyKVStore, id []byte) (*Proposal, error) {
	obj, err := b.Get(db, id)
	if err != nil {
		return nil, errors.Wrap(err, "bucket lookup")
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "proposal %X", id)
	}
	p, ok := obj.Value().(*Proposal)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return p, nil
}

func byVaultID(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	p, ok := obj.Value().(*Proposal)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "can only take index of Proposal")
	}
	return p.VaultID, nil
}
