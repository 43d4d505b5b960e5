package coffertest

import "github.com/coffernet/coffer"

// Handler implements a mock of the coffer.Handler interface. Each method
// call is counted and the configured result returned.
type Handler struct {
	checkCall   int
	CheckResult coffer.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult coffer.DeliverResult
	DeliverErr    error
}

var _ coffer.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	h.checkCall++
	return &h.CheckResult, h.CheckErr
}

func (h *Handler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	h.deliverCall++
	return &h.DeliverResult, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// WriteHandler writes the given key/value pair to the KVStore on every call,
// and returns the configured error (use nil for success).
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ coffer.Handler = WriteHandler{}

func (h WriteHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &coffer.CheckResult{}, h.Err
}

func (h WriteHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &coffer.DeliverResult{}, h.Err
}

// PanicHandler panics with the configured value on every call.
type PanicHandler struct {
	Panic interface{}
}

var _ coffer.Handler = PanicHandler{}

func (h PanicHandler) Check(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.CheckResult, error) {
	panic(h.Panic)
}

func (h PanicHandler) Deliver(ctx coffer.Context, db coffer.KVStore, tx coffer.Tx) (*coffer.DeliverResult, error) {
	panic(h.Panic)
}
