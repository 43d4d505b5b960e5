package vault

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
)

// Initializer fulfils the coffer.Initializer interface to load vaults
// from the genesis file.
type Initializer struct{}

var _ coffer.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial vault info from genesis and save it
// in the database.
func (*Initializer) FromGenesis(opts coffer.Options, kv coffer.KVStore) error {
	var vaults []struct {
		Description string           `json:"description"`
		Owners      []coffer.Address `json:"owners"`
		Threshold   uint32           `json:"threshold"`
	}
	if err := opts.ReadOptions("vault", &vaults); err != nil {
		return err
	}

	bucket := NewVaultBucket()
	for i, v := range vaults {
		if err := validateOwners(errors.ErrState, v.Owners, v.Threshold); err != nil {
			return errors.Wrapf(err, "vault #%d", i)
		}
		id, err := bucket.idSeq.NextVal(kv)
		if err != nil {
			return errors.Wrap(err, "cannot acquire ID")
		}
		_, discriminant, err := deriveAuthority(id)
		if err != nil {
			return errors.Wrapf(err, "vault #%d", i)
		}
		vault := &Vault{
			Description:  v.Description,
			Owners:       v.Owners,
			Threshold:    v.Threshold,
			Discriminant: discriminant,
		}
		if err := bucket.Update(kv, id, vault); err != nil {
			return errors.Wrapf(err, "cannot save vault #%d", i)
		}
	}
	return nil
}
