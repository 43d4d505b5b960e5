package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/coffernet/coffer"
	"github.com/coffernet/coffer/coffertest"
	"github.com/coffernet/coffer/coffertest/assert"
	"github.com/coffernet/coffer/errors"
	"github.com/coffernet/coffer/store"
)

func TestLoggingPassthrough(t *testing.T) {
	db := store.MemStore()
	tx := &coffertest.Tx{}

	var out bytes.Buffer
	ctx := coffer.WithLogger(context.Background(), log.NewTMLogger(&out))

	l := NewLogging()

	h := new(coffertest.Handler)
	h.CheckResult = coffer.CheckResult{Log: "all good"}
	h.DeliverResult = coffer.DeliverResult{Log: "all good"}

	_, err := l.Check(ctx, db, tx, h)
	assert.Nil(t, err)
	_, err = l.Deliver(ctx, db, tx, h)
	assert.Nil(t, err)
	assert.Equal(t, 2, h.CallCount())

	logged := out.String()
	if !strings.Contains(logged, "duration") {
		t.Fatalf("no duration logged: %q", logged)
	}
	if strings.Contains(logged, "err") {
		t.Fatalf("unexpected error logged: %q", logged)
	}
}

func TestLoggingError(t *testing.T) {
	db := store.MemStore()
	tx := &coffertest.Tx{}

	var out bytes.Buffer
	ctx := coffer.WithLogger(context.Background(), log.NewTMLogger(&out))

	l := NewLogging()

	h := &coffertest.Handler{
		CheckErr:   errors.ErrNotFound,
		DeliverErr: errors.ErrNotFound,
	}

	_, err := l.Check(ctx, db, tx, h)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = l.Deliver(ctx, db, tx, h)
	assert.IsErr(t, errors.ErrNotFound, err)

	logged := out.String()
	if !strings.Contains(logged, "err") {
		t.Fatalf("error not logged: %q", logged)
	}
}
