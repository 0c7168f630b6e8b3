package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalGetSetRoundTrip(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	l.Set(ctx, "k", []byte("v"), time.Minute)

	v, ok := l.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestLocalGetExpiresAfterTTL(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	l.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := l.Get(ctx, "k")
	assert.False(t, ok)
}

func TestLocalDeleteRemovesKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()
	l.Set(ctx, "k", []byte("v"), time.Minute)
	l.Delete(ctx, "k")

	_, ok := l.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGetOrLoadPopulatesBothTiersOnMiss(t *testing.T) {
	ext := NewLocal()
	loc := NewLocal()
	c := New(ext, loc, discardLogger())
	ctx := context.Background()

	calls := 0
	v, err := GetOrLoad(ctx, c, "key", time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "loaded", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)

	if _, ok := ext.Get(ctx, "key"); !ok {
		t.Fatal("expected external tier to be populated")
	}
	if _, ok := loc.Get(ctx, "key"); !ok {
		t.Fatal("expected local tier to be populated")
	}

	v, err = GetOrLoad(ctx, c, "key", time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "loaded-again", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls) // second call served from cache, loader not invoked again
}
