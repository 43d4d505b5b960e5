package app

import (
	"github.com/coffernet/coffer"
)

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...coffer.Initializer) coffer.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []coffer.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts coffer.Options, kv coffer.KVStore) error {
	for _, i := range c.inits {
		if i == nil {
			continue
		}
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
