package vault

import (
	"context"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/x"
)

type contextKey int // local to the vault module

const (
	contextKeyVault contextKey = iota
)

// withAuthority is private, only execution can grant the vault
// authority to a context. Nested executions stack their conditions.
func withAuthority(ctx coffer.Context, cond coffer.Condition) coffer.Context {
	val, _ := ctx.Value(contextKeyVault).([]coffer.Condition)
	return context.WithValue(ctx, contextKeyVault, append(val, cond))
}

// Authenticate reveals vault authority conditions granted during
// proposal execution.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns authority conditions previously set on this
// context.
func (a Authenticate) GetConditions(ctx coffer.Context) []coffer.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyVault).([]coffer.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions.
func (a Authenticate) HasAddress(ctx coffer.Context, addr coffer.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
