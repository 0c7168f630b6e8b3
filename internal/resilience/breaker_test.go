package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 3, ResetTimeout: time.Minute}, nil)
	ctx := context.Background()
	failing := func(ctx context.Context) error { return errBoom }

	for i := 0; i < 3; i++ {
		err := b.Execute(ctx, failing)
		assert.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, Open, b.State())
	err := b.Execute(ctx, failing)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreakerClosesAfterSuccessfulHalfOpenProbe(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, func(ctx context.Context) error { return errBoom }))
	require.Equal(t, Open, b.State())

	time.Sleep(20 * time.Millisecond)

	err := b.Execute(ctx, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerReopensOnFailedHalfOpenProbe(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, func(ctx context.Context) error { return errBoom }))
	time.Sleep(20 * time.Millisecond)

	err := b.Execute(ctx, func(ctx context.Context) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Open, b.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Minute}, nil)
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, func(ctx context.Context) error { return errBoom }))
	require.NoError(t, b.Execute(ctx, func(ctx context.Context) error { return nil }))
	require.Error(t, b.Execute(ctx, func(ctx context.Context) error { return errBoom }))

	assert.Equal(t, Closed, b.State())
}
