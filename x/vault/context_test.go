package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coffernet/coffer/coffertest"
)

func TestAuthenticate(t *testing.T) {
	var auth Authenticate
	ctx := context.Background()

	assert.Nil(t, auth.GetConditions(ctx))
	assert.False(t, auth.HasAddress(ctx, coffertest.NewCondition().Address()))

	first := VaultCondition([]byte{0, 0, 0, 0, 0, 0, 0, 1}, 255)
	ctx = withAuthority(ctx, first)
	assert.Equal(t, 1, len(auth.GetConditions(ctx)))
	assert.True(t, auth.HasAddress(ctx, first.Address()))

	// Nested executions stack.
	second := VaultCondition([]byte{0, 0, 0, 0, 0, 0, 0, 2}, 255)
	inner := withAuthority(ctx, second)
	assert.Equal(t, 2, len(auth.GetConditions(inner)))
	assert.True(t, auth.HasAddress(inner, first.Address()))
	assert.True(t, auth.HasAddress(inner, second.Address()))

	// The outer context is untouched.
	assert.Equal(t, 1, len(auth.GetConditions(ctx)))
	assert.False(t, auth.HasAddress(ctx, second.Address()))
}
