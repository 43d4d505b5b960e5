package utils

import (
	"context"
	"testing"

	"github.com/coffernet/coffer/coffertest"
	"github.com/coffernet/coffer/coffertest/assert"
	"github.com/coffernet/coffer/errors"
	"github.com/coffernet/coffer/store"
)

func TestRecovery(t *testing.T) {
	db := store.MemStore()
	ctx := context.Background()
	tx := &coffertest.Tx{}

	r := NewRecovery()

	_, err := r.Check(ctx, db, tx, coffertest.PanicHandler{Panic: "check kaboom"})
	assert.IsErr(t, errors.ErrPanic, err)

	_, err = r.Deliver(ctx, db, tx, coffertest.PanicHandler{Panic: "deliver kaboom"})
	assert.IsErr(t, errors.ErrPanic, err)

	// without a panic the result passes through untouched
	h := new(coffertest.Handler)
	_, err = r.Check(ctx, db, tx, h)
	assert.Nil(t, err)
	_, err = r.Deliver(ctx, db, tx, h)
	assert.Nil(t, err)
	assert.Equal(t, 2, h.CallCount())
}
