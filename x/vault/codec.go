package vault

import (
	amino "github.com/tendermint/go-amino"

	"github.com/coffernet/coffer"
)

// cdc serializes all vault models and messages. Sub-operation messages
// travel inside a Proposal as a coffer.Msg interface field, so every
// message type that may be dispatched by a vault must be registered
// here (see RegisterSubMsg).
var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*coffer.Msg)(nil), nil)
	cdc.RegisterConcrete(&CreateVaultMsg{}, "vault/create", nil)
	cdc.RegisterConcrete(&CreateProposalMsg{}, "vault/propose", nil)
	cdc.RegisterConcrete(&ApproveMsg{}, "vault/approve", nil)
	cdc.RegisterConcrete(&ExecuteMsg{}, "vault/execute", nil)
	cdc.RegisterConcrete(&RotateOwnersMsg{}, "vault/rotate", nil)
}

// RegisterSubMsg registers a message type from another extension so it
// can be carried inside a proposal's operation. Call during package
// initialization, before any proposal is decoded.
func RegisterSubMsg(msg coffer.Msg, name string) {
	cdc.RegisterConcrete(msg, name, nil)
}
