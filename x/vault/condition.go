package vault

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
)

// VaultCondition returns the authority condition for a vault ID and
// discriminant pair.
func VaultCondition(id []byte, discriminant byte) coffer.Condition {
	data := make([]byte, 0, len(id)+1)
	data = append(data, id...)
	data = append(data, discriminant)
	return coffer.NewCondition("vault", "seal", data)
}

// deriveAuthority finds the authority condition for a new vault. It
// walks discriminants from 255 down to 0 and returns the first one
// whose address is usable. Addresses with a zero leading byte are
// reserved and skipped. With a 20 byte hash address the search failing
// for all 256 discriminants is astronomically unlikely, but callers
// must still handle ErrDerivationExhausted.
func deriveAuthority(id []byte) (coffer.Condition, byte, error) {
	for d := 255; d >= 0; d-- {
		cond := VaultCondition(id, byte(d))
		if usableAuthority(cond.Address()) {
			return cond, byte(d), nil
		}
	}
	return nil, 0, errors.Wrapf(ErrDerivationExhausted, "vault %X", id)
}

// usableAuthority reports whether an address may serve as a vault
// authority.
func usableAuthority(addr coffer.Address) bool {
	return len(addr) > 0 && addr[0] != 0
}
