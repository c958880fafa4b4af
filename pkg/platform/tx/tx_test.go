package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxNilIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))

	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestPassthroughRunsInPlace(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	ran := false
	err := Passthrough{}.RunAtomic(ctx, func(inner context.Context) error {
		ran = true
		require.Equal(t, "v", inner.Value(key{}))
		_, ok := From(inner)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestPassthroughPropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := Passthrough{}.RunAtomic(context.Background(), func(context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}
