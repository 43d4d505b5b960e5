/*
Package vault implements threshold-approval authorization.

A vault is a set of owner addresses with an approval threshold. Owners
propose operations, other owners approve them, and once the threshold
is reached anyone can execute the proposal. Execution runs the
operation's sub-messages under the vault's derived authority condition,
so handlers downstream can treat the vault itself as the actor.

Rotating the owner set bumps the vault's owner set version, which
invalidates every proposal created against the previous owner set.
*/
package vault
