package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/coffertest"
	"github.com/coffernet/coffer/errors"
	"github.com/coffernet/coffer/store"
	"github.com/coffernet/coffer/x"
)

// newContextWithAuth creates a context with perms as signers and sets
// the height.
func newContextWithAuth(perms ...coffer.Condition) (coffer.Context, x.Authenticator) {
	ctx := context.Background()
	ctx = coffer.WithHeight(ctx, 100)
	auth := &coffertest.CtxAuth{Key: "authKey"}
	return auth.SetConditions(ctx, perms...), auth
}

func newOwners(perms ...coffer.Condition) []coffer.Address {
	var owners []coffer.Address
	for _, p := range perms {
		owners = append(owners, p.Address())
	}
	return owners
}

// withVault creates a vault and returns its ID.
func withVault(t *testing.T, db coffer.KVStore, msg CreateVaultMsg) []byte {
	t.Helper()
	k := coffertest.NewCondition()
	ctx, auth := newContextWithAuth(k)
	handler := CreateVaultHandler{auth: auth, vaults: NewVaultBucket()}
	res, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &msg})
	require.NoError(t, err)
	return res.Data
}

// withProposal creates a proposal against the given vault and returns
// its ID.
func withProposal(t *testing.T, db coffer.KVStore, vaultID []byte, op Operation) []byte {
	t.Helper()
	k := coffertest.NewCondition()
	ctx, auth := newContextWithAuth(k)
	handler := CreateProposalHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
	res, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &CreateProposalMsg{
		VaultID:   vaultID,
		Operation: op,
	}})
	require.NoError(t, err)
	return res.Data
}

// approve records an owner approval. The owner signs the transaction.
func approve(t *testing.T, db coffer.KVStore, proposalID []byte, owner coffer.Condition) {
	t.Helper()
	ctx, auth := newContextWithAuth(owner)
	handler := ApproveHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
	_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ApproveMsg{
		ProposalID: proposalID,
		Owner:      owner.Address(),
	}})
	require.NoError(t, err)
}

// rotateOp builds an operation containing a single owner rotation.
func rotateOp(vaultID []byte, newOwners []coffer.Address, newThreshold uint32) Operation {
	return Operation{
		Target: "rotate owners",
		SubOps: []SubOp{
			{
				Path: pathRotateOwners,
				Msg: &RotateOwnersMsg{
					VaultID:      vaultID,
					NewOwners:    newOwners,
					NewThreshold: newThreshold,
				},
			},
		},
	}
}

// rotateExecutor dispatches rotations the way a full application
// router would.
func rotateExecutor() Executor {
	return HandlerAsExecutor(RotateOwnersHandler{
		auth:   Authenticate{},
		vaults: NewVaultBucket(),
	})
}

func TestCreateVaultHandler(t *testing.T) {
	a := coffertest.NewCondition()
	b := coffertest.NewCondition()
	c := coffertest.NewCondition()

	testcases := []struct {
		name string
		msg  *CreateVaultMsg
		err  *errors.Error
	}{
		{
			name: "valid use case",
			msg: &CreateVaultMsg{
				Description: "team treasury",
				Owners:      newOwners(a, b, c),
				Threshold:   2,
			},
		},
		{
			name: "zero threshold",
			msg: &CreateVaultMsg{
				Owners:    newOwners(a, b, c),
				Threshold: 0,
			},
			err: ErrInvalidThreshold,
		},
		{
			name: "threshold above owner count",
			msg: &CreateVaultMsg{
				Owners:    newOwners(a, b, c),
				Threshold: 4,
			},
			err: ErrInvalidThreshold,
		},
		{
			name: "duplicate owner",
			msg: &CreateVaultMsg{
				Owners:    []coffer.Address{a.Address(), b.Address(), a.Address()},
				Threshold: 2,
			},
			err: ErrDuplicateOwner,
		},
		{
			name: "no owners",
			msg: &CreateVaultMsg{
				Threshold: 1,
			},
			err: ErrInvalidThreshold,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			db := store.MemStore()
			ctx, auth := newContextWithAuth(a)
			handler := CreateVaultHandler{auth: auth, vaults: NewVaultBucket()}
			tx := &coffertest.Tx{Msg: tc.msg}

			_, err := handler.Check(ctx, db, tx)
			if tc.err != nil {
				require.True(t, tc.err.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)

			res, err := handler.Deliver(ctx, db, tx)
			require.NoError(t, err)
			require.NotEmpty(t, res.Data)

			vault, err := NewVaultBucket().GetVault(db, res.Data)
			require.NoError(t, err)
			assert.Equal(t, tc.msg.Description, vault.Description)
			assert.Equal(t, tc.msg.Owners, vault.Owners)
			assert.Equal(t, tc.msg.Threshold, vault.Threshold)
			assert.Equal(t, uint32(0), vault.OwnerSetVersion)
			authority := VaultCondition(res.Data, vault.Discriminant)
			assert.True(t, usableAuthority(authority.Address()))
		})
	}
}

func TestCreateProposalHandler(t *testing.T) {
	a := coffertest.NewCondition()
	b := coffertest.NewCondition()
	outsider := coffertest.NewCondition()

	db := store.MemStore()
	vaultID := withVault(t, db, CreateVaultMsg{
		Owners:    newOwners(a, b),
		Threshold: 2,
	})

	op := rotateOp(vaultID, newOwners(a), 1)

	t.Run("proposing is permissionless", func(t *testing.T) {
		ctx, auth := newContextWithAuth(outsider)
		handler := CreateProposalHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		res, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &CreateProposalMsg{
			VaultID:   vaultID,
			Operation: op,
		}})
		require.NoError(t, err)

		proposal, err := NewProposalBucket().GetProposal(db, res.Data)
		require.NoError(t, err)
		assert.Equal(t, vaultID, proposal.VaultID)
		assert.Equal(t, uint32(0), proposal.OwnerSetVersion)
		assert.False(t, proposal.Executed)
		assert.Equal(t, outsider.Address(), proposal.Proposer)
		// No implicit approval, not even for an owner proposer.
		assert.Len(t, proposal.Approvals, 0)
	})

	t.Run("owner proposer gets no implicit approval", func(t *testing.T) {
		ctx, auth := newContextWithAuth(a)
		handler := CreateProposalHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		res, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &CreateProposalMsg{
			VaultID:   vaultID,
			Operation: op,
		}})
		require.NoError(t, err)

		proposal, err := NewProposalBucket().GetProposal(db, res.Data)
		require.NoError(t, err)
		assert.Len(t, proposal.Approvals, 0)
	})

	t.Run("missing vault", func(t *testing.T) {
		ctx, auth := newContextWithAuth(a)
		handler := CreateProposalHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &CreateProposalMsg{
			VaultID:   []byte("does-not-exist"),
			Operation: op,
		}})
		require.True(t, errors.ErrNotFound.Is(err), "%+v", err)
	})

	t.Run("unsigned transaction", func(t *testing.T) {
		ctx, auth := newContextWithAuth()
		handler := CreateProposalHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &CreateProposalMsg{
			VaultID:   vaultID,
			Operation: op,
		}})
		require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	})
}

func TestApproveHandler(t *testing.T) {
	a := coffertest.NewCondition()
	b := coffertest.NewCondition()
	c := coffertest.NewCondition()
	outsider := coffertest.NewCondition()

	newFixture := func(t *testing.T) (coffer.CacheableKVStore, []byte, []byte) {
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b, c),
			Threshold: 2,
		})
		proposalID := withProposal(t, db, vaultID, rotateOp(vaultID, newOwners(a, b), 2))
		return db, vaultID, proposalID
	}

	t.Run("owner approval is recorded", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		approve(t, db, proposalID, a)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a), proposal.Approvals)
	})

	t.Run("approving twice is a no-op", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, a)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a), proposal.Approvals)
	})

	t.Run("non-owner cannot approve", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		ctx, auth := newContextWithAuth(outsider)
		handler := ApproveHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ApproveMsg{
			ProposalID: proposalID,
			Owner:      outsider.Address(),
		}})
		require.True(t, ErrUnknownOwner.Is(err), "%+v", err)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.Len(t, proposal.Approvals, 0)
	})

	t.Run("approval requires the owner signature", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		ctx, auth := newContextWithAuth(b)
		handler := ApproveHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ApproveMsg{
			ProposalID: proposalID,
			Owner:      a.Address(),
		}})
		require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	})

	t.Run("stale proposal cannot be approved", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)
		execute(t, db, proposalID, rotateExecutor())

		// The rotation was the proposal itself, any later proposal
		// bound to version 0 is now stale.
		stale := withProposalAtVersion(t, db, proposalID, 0)

		ctx, auth := newContextWithAuth(a)
		handler := ApproveHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ApproveMsg{
			ProposalID: stale,
			Owner:      a.Address(),
		}})
		require.True(t, ErrStaleProposal.Is(err), "%+v", err)
	})

	t.Run("executed proposal cannot be approved", func(t *testing.T) {
		db, _, proposalID := newFixture(t)
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)
		// An executor that does not touch the vault keeps the owner
		// set version aligned, so the executed state is what rejects.
		noop := func(coffer.Context, coffer.KVStore, coffer.Msg) (*coffer.DeliverResult, error) {
			return &coffer.DeliverResult{}, nil
		}
		execute(t, db, proposalID, noop)

		ctx, auth := newContextWithAuth(c)
		handler := ApproveHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ApproveMsg{
			ProposalID: proposalID,
			Owner:      c.Address(),
		}})
		require.True(t, ErrAlreadyExecuted.Is(err), "%+v", err)
	})
}

// execute runs a proposal with the given executor and requires success.
func execute(t *testing.T, db coffer.KVStore, proposalID []byte, executor Executor) *coffer.DeliverResult {
	t.Helper()
	ctx, auth := newContextWithAuth(coffertest.NewCondition())
	handler := ExecuteHandler{
		auth:      auth,
		vaults:    NewVaultBucket(),
		proposals: NewProposalBucket(),
		executor:  executor,
	}
	res, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
	require.NoError(t, err)
	return res
}

// withProposalAtVersion stores a proposal pinned to the given owner set
// version, bypassing the handler. Used to model proposals created
// before a rotation.
func withProposalAtVersion(t *testing.T, db coffer.KVStore, sibling []byte, version uint32) []byte {
	t.Helper()
	proposals := NewProposalBucket()
	orig, err := proposals.GetProposal(db, sibling)
	require.NoError(t, err)
	p := orig.Copy().(*Proposal)
	p.OwnerSetVersion = version
	p.Executed = false
	p.Approvals = nil
	id, err := proposals.Create(db, p)
	require.NoError(t, err)
	return id
}

func TestExecuteHandler(t *testing.T) {
	a := coffertest.NewCondition()
	b := coffertest.NewCondition()
	c := coffertest.NewCondition()

	newFixture := func(t *testing.T, op Operation) (coffer.CacheableKVStore, []byte, []byte) {
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b, c),
			Threshold: 2,
		})
		if op.SubOps == nil {
			op = rotateOp(vaultID, newOwners(a, b, c), 2)
		}
		proposalID := withProposal(t, db, vaultID, op)
		return db, vaultID, proposalID
	}

	t.Run("insufficient approvals", func(t *testing.T) {
		db, _, proposalID := newFixture(t, Operation{})
		approve(t, db, proposalID, a)

		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
		require.True(t, ErrInsufficientApprovals.Is(err), "%+v", err)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.False(t, proposal.Executed)
	})

	t.Run("threshold met executes all sub operations in order", func(t *testing.T) {
		// A fresh identity joins the owner set through the rotation.
		d := coffertest.NewCondition()
		db, vaultID, _ := newFixture(t, Operation{})
		op := Operation{
			Target: "double rotation",
			SubOps: []SubOp{
				rotateOp(vaultID, newOwners(a, b, c), 2).SubOps[0],
				rotateOp(vaultID, newOwners(a, b, d), 2).SubOps[0],
			},
		}
		proposalID := withProposal(t, db, vaultID, op)
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)

		var paths []string
		counting := func(ctx coffer.Context, db coffer.KVStore, msg coffer.Msg) (*coffer.DeliverResult, error) {
			paths = append(paths, msg.Path())
			return rotateExecutor()(ctx, db, msg)
		}
		execute(t, db, proposalID, counting)

		assert.Equal(t, []string{pathRotateOwners, pathRotateOwners}, paths)
		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a, b, d), vault.Owners)
		// Two rotations ran, each bumped the version by one.
		assert.Equal(t, uint32(2), vault.OwnerSetVersion)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.True(t, proposal.Executed)
	})

	t.Run("executing twice fails", func(t *testing.T) {
		db, _, proposalID := newFixture(t, Operation{})
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)
		// A vault neutral executor keeps the version aligned so the
		// second attempt trips on the executed flag, not staleness.
		noop := func(coffer.Context, coffer.KVStore, coffer.Msg) (*coffer.DeliverResult, error) {
			return &coffer.DeliverResult{}, nil
		}
		execute(t, db, proposalID, noop)

		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: noop}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
		require.True(t, ErrAlreadyExecuted.Is(err), "%+v", err)
	})

	t.Run("rotated out approvals do not count", func(t *testing.T) {
		// Rotate from {a, b, c} to {a, b}, then try to execute a stale
		// proposal approved by c.
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b, c),
			Threshold: 2,
		})
		rotation := withProposal(t, db, vaultID, rotateOp(vaultID, newOwners(a, b), 2))
		victim := withProposal(t, db, vaultID, rotateOp(vaultID, newOwners(c), 1))
		approve(t, db, victim, b)
		approve(t, db, victim, c)

		approve(t, db, rotation, a)
		approve(t, db, rotation, b)
		execute(t, db, rotation, rotateExecutor())

		// c is rotated out, only b's approval counts now. The approval
		// shortage is reported before the staleness.
		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: victim}})
		require.True(t, ErrInsufficientApprovals.Is(err), "%+v", err)
	})

	t.Run("stale proposal with surviving approvals", func(t *testing.T) {
		// Rotation keeps a and b, so the pre-rotation approvals still
		// meet the threshold. Staleness must block execution anyway.
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b, c),
			Threshold: 2,
		})
		victim := withProposal(t, db, vaultID, rotateOp(vaultID, newOwners(c), 1))
		approve(t, db, victim, a)
		approve(t, db, victim, b)

		rotation := withProposal(t, db, vaultID, rotateOp(vaultID, newOwners(a, b), 2))
		approve(t, db, rotation, a)
		approve(t, db, rotation, b)
		execute(t, db, rotation, rotateExecutor())

		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: victim}})
		require.True(t, ErrStaleProposal.Is(err), "%+v", err)
	})

	t.Run("failing sub operation leaves no trace", func(t *testing.T) {
		db, vaultID, _ := newFixture(t, Operation{})
		op := Operation{
			Target: "rotate twice, second fails",
			SubOps: []SubOp{
				rotateOp(vaultID, newOwners(a, b), 2).SubOps[0],
				// References a vault that does not exist.
				rotateOp([]byte("no-such-vault"), newOwners(a), 1).SubOps[0],
			},
		}
		proposalID := withProposal(t, db, vaultID, op)
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)

		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
		require.True(t, errors.ErrNotFound.Is(err), "%+v", err)

		// The first rotation must be rolled back.
		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a, b, c), vault.Owners)
		assert.Equal(t, uint32(0), vault.OwnerSetVersion)

		proposal, err := NewProposalBucket().GetProposal(db, proposalID)
		require.NoError(t, err)
		assert.False(t, proposal.Executed)
	})

	t.Run("authority condition is granted to sub operations", func(t *testing.T) {
		db, vaultID, proposalID := newFixture(t, Operation{})
		approve(t, db, proposalID, a)
		approve(t, db, proposalID, b)

		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		authority := VaultCondition(vaultID, vault.Discriminant)

		witness := func(ctx coffer.Context, db coffer.KVStore, msg coffer.Msg) (*coffer.DeliverResult, error) {
			if !(Authenticate{}).HasAddress(ctx, authority.Address()) {
				return nil, errors.Wrap(errors.ErrUnauthorized, "authority not granted")
			}
			return rotateExecutor()(ctx, db, msg)
		}
		execute(t, db, proposalID, witness)
	})

	t.Run("foreign signer capability requires a signature", func(t *testing.T) {
		payer := coffertest.NewCondition()
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b),
			Threshold: 1,
		})
		op := rotateOp(vaultID, newOwners(a, b), 1)
		op.SubOps[0].Capabilities = []Capability{
			{Address: payer.Address(), Writer: true, Signer: true},
		}
		proposalID := withProposal(t, db, vaultID, op)
		approve(t, db, proposalID, a)

		// Without the payer signature execution is refused.
		ctx, auth := newContextWithAuth(a)
		handler := ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
		require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)

		// With it, execution goes through.
		ctx, auth = newContextWithAuth(a, payer)
		handler = ExecuteHandler{auth: auth, vaults: NewVaultBucket(), proposals: NewProposalBucket(), executor: rotateExecutor()}
		_, err = handler.Deliver(ctx, db, &coffertest.Tx{Msg: &ExecuteMsg{ProposalID: proposalID}})
		require.NoError(t, err)
	})

	t.Run("authority signer capability is scrubbed", func(t *testing.T) {
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b),
			Threshold: 1,
		})
		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		authority := VaultCondition(vaultID, vault.Discriminant)

		op := rotateOp(vaultID, newOwners(a, b), 1)
		op.SubOps[0].Capabilities = []Capability{
			{Address: authority.Address(), Writer: true, Signer: true},
		}
		proposalID := withProposal(t, db, vaultID, op)
		approve(t, db, proposalID, a)

		// No transaction signature covers the authority and none is
		// needed, execution itself provides it.
		execute(t, db, proposalID, rotateExecutor())
	})
}

func TestRotateOwnersHandler(t *testing.T) {
	a := coffertest.NewCondition()
	b := coffertest.NewCondition()
	c := coffertest.NewCondition()

	newFixture := func(t *testing.T) (coffer.CacheableKVStore, []byte, coffer.Condition) {
		db := store.MemStore()
		vaultID := withVault(t, db, CreateVaultMsg{
			Owners:    newOwners(a, b, c),
			Threshold: 3,
		})
		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		return db, vaultID, VaultCondition(vaultID, vault.Discriminant)
	}

	t.Run("only the vault authority may rotate", func(t *testing.T) {
		db, vaultID, _ := newFixture(t)
		// Even all owners signing together is not enough.
		ctx, auth := newContextWithAuth(a, b, c)
		handler := RotateOwnersHandler{auth: auth, vaults: NewVaultBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &RotateOwnersMsg{
			VaultID:   vaultID,
			NewOwners: newOwners(a, b),
		}})
		require.True(t, ErrUnauthorizedCaller.Is(err), "%+v", err)
	})

	t.Run("rotation replaces owners and bumps the version", func(t *testing.T) {
		db, vaultID, authority := newFixture(t)
		ctx, auth := newContextWithAuth(authority)
		handler := RotateOwnersHandler{auth: auth, vaults: NewVaultBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &RotateOwnersMsg{
			VaultID:      vaultID,
			NewOwners:    newOwners(a, b),
			NewThreshold: 2,
		}})
		require.NoError(t, err)

		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a, b), vault.Owners)
		assert.Equal(t, uint32(2), vault.Threshold)
		assert.Equal(t, uint32(1), vault.OwnerSetVersion)
	})

	t.Run("zero threshold keeps the current one", func(t *testing.T) {
		db, vaultID, authority := newFixture(t)
		ctx, auth := newContextWithAuth(authority)
		handler := RotateOwnersHandler{auth: auth, vaults: NewVaultBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &RotateOwnersMsg{
			VaultID:   vaultID,
			NewOwners: newOwners(a, b, c),
		}})
		require.NoError(t, err)

		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), vault.Threshold)
		assert.Equal(t, uint32(1), vault.OwnerSetVersion)
	})

	t.Run("kept threshold must fit the new owner set", func(t *testing.T) {
		db, vaultID, authority := newFixture(t)
		// Current threshold is 3, shrinking to two owners without a
		// new threshold must be rejected, never clamped.
		ctx, auth := newContextWithAuth(authority)
		handler := RotateOwnersHandler{auth: auth, vaults: NewVaultBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &RotateOwnersMsg{
			VaultID:   vaultID,
			NewOwners: newOwners(a, b),
		}})
		require.True(t, ErrInvalidThreshold.Is(err), "%+v", err)

		vault, err := NewVaultBucket().GetVault(db, vaultID)
		require.NoError(t, err)
		assert.Equal(t, newOwners(a, b, c), vault.Owners)
		assert.Equal(t, uint32(0), vault.OwnerSetVersion)
	})

	t.Run("duplicate new owner", func(t *testing.T) {
		db, vaultID, authority := newFixture(t)
		ctx, auth := newContextWithAuth(authority)
		handler := RotateOwnersHandler{auth: auth, vaults: NewVaultBucket()}
		_, err := handler.Deliver(ctx, db, &coffertest.Tx{Msg: &RotateOwnersMsg{
			VaultID:      vaultID,
			NewOwners:    []coffer.Address{a.Address(), a.Address()},
			NewThreshold: 1,
		}})
		require.True(t, ErrDuplicateOwner.Is(err), "%+v", err)
	})
}
