/*
Package errors implements custom error interfaces for coffer.

The idea is to reuse as many errors from this package as possible and
define custom package errors only when an error code must be exposed to
clients (every root error carries a unique ABCI code). Errors created
during runtime should always wrap one of the registered root errors, so
error kind tests (ErrXYZ.Is) work through any number of wrap layers.
*/
package errors
