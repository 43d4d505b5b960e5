package app

import (
	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx and CheckTx
// handlers to the storage and query functionality of StoreApp
type BaseApp struct {
	*StoreApp
	decoder coffer.TxDecoder
	handler coffer.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application
func NewBaseApp(
	store *StoreApp,
	decoder coffer.TxDecoder,
	handler coffer.Handler,
	debug bool,
) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx - ABCI - dispatches to the handler
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return coffer.DeliverTxError(err, b.debug)
	}

	ctx := coffer.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", coffer.GetPath(tx))

	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	if err == nil {
		b.AddValChange(res.Diff)
	}
	return coffer.DeliverOrError(res, err, b.debug)
}

// CheckTx - ABCI - dispatches to the handler
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return coffer.CheckTxError(err, b.debug)
	}

	ctx := coffer.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", coffer.GetPath(tx))

	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return coffer.CheckOrError(res, err, b.debug)
}

// loadTx calls the decoder, and captures any panics
func (b BaseApp) loadTx(txBytes []byte) (tx coffer.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}
