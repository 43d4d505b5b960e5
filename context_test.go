package coffer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func TestContext(t *testing.T) {
	bg := context.Background()

	// try logger with default
	newLogger := log.NewTMLogger(os.Stdout)
	ctx := WithLogger(bg, newLogger)
	assert.Equal(t, DefaultLogger, GetLogger(bg))
	assert.Equal(t, newLogger, GetLogger(ctx))

	// test height - uninitialized
	val, ok := GetHeight(ctx)
	assert.Equal(t, int64(0), val)
	assert.False(t, ok)
	// set
	ctx = WithHeight(ctx, 7)
	val, ok = GetHeight(ctx)
	assert.Equal(t, int64(7), val)
	assert.True(t, ok)
	// no reset
	assert.Panics(t, func() { WithHeight(ctx, 9) })

	// changing the info, should modify the logger, but not the height
	ctx2 := WithLogInfo(ctx, "foo", "bar")
	assert.NotEqual(t, GetLogger(ctx), GetLogger(ctx2))
	val, _ = GetHeight(ctx2)
	assert.Equal(t, int64(7), val)

	// chain id can be set exactly once and must be valid
	assert.Panics(t, func() { GetChainID(ctx) })
	assert.Panics(t, func() { WithChainID(ctx, "bad") })
	ctx = WithChainID(ctx, "my-chain-66")
	assert.Equal(t, "my-chain-66", GetChainID(ctx))
	assert.Panics(t, func() { WithChainID(ctx, "my-chain-66") })
}

func TestBlockTime(t *testing.T) {
	now := time.Now().UTC()
	ctx := WithHeader(context.Background(), abci.Header{
		Height: 4,
		Time:   now,
	})
	got, err := BlockTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	// header can be set only once
	assert.Panics(t, func() { WithHeader(ctx, abci.Header{}) })

	_, err = BlockTime(context.Background())
	require.Error(t, err)
}

func TestChainID(t *testing.T) {
	cases := map[string]bool{
		"foobar":                        true,
		"deadbeef00cafe":                true,
		"my-chain":                      true,
		"under_scored_name":             true,
		"":                              false,
		"short":                         false,
		"way-way-way-too-long-chain-id": false,
		"invalid;;chars":                false,
	}
	for chainID, want := range cases {
		assert.Equal(t, want, IsValidChainID(chainID), chainID)
	}
}
