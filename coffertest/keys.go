package coffertest

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/crypto"
)

// NewKey returns a newly generated ed25519 private key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a newly generated key.
func NewCondition() coffer.Condition {
	return NewKey().PublicKey().Condition()
}
