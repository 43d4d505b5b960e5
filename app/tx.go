package app

import (
	amino "github.com/tendermint/go-amino"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
)

// txCdc serializes the transaction envelope. Messages travel as a
// registered interface, so every message type a transaction can carry
// must be registered via RegisterMsg before decoding.
var txCdc = amino.NewCodec()

func init() {
	txCdc.RegisterInterface((*coffer.Msg)(nil), nil)
}

// RegisterMsg registers a concrete message type with the transaction
// codec. Extensions call this during initialization for every message
// they route.
func RegisterMsg(msg coffer.Msg, name string) {
	txCdc.RegisterConcrete(msg, name, nil)
}

// Tx is the application transaction envelope. It carries exactly one
// message; authentication travels in the context, set up by the
// decorator stack.
type Tx struct {
	Msg coffer.Msg `json:"msg"`
}

var _ coffer.Tx = (*Tx)(nil)

// GetMsg returns the message this transaction wants executed.
func (tx *Tx) GetMsg() (coffer.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrState, "transaction without message")
	}
	return tx.Msg, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return txCdc.MarshalBinaryBare(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	return txCdc.UnmarshalBinaryBare(raw, tx)
}

// TxDecoder parses raw transaction bytes sent by a client.
func TxDecoder(raw []byte) (coffer.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return tx, nil
}
