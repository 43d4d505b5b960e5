/*
Package coffer defines the common interfaces that tie the framework
together: transactions and messages, handlers and decorators, the
key-value storage contracts and the condition/address scheme used for
authorization.

Applications are built by combining extensions. Each extension ships
its own messages, models and handlers and is wired into an application
through the router and decorator chain in the app package. State is
kept in a KVStore and every transaction is applied atomically against
it, in the total order the consensus engine delivers them.
*/
package coffer
