package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCapacityRejectsOverMax(t *testing.T) {
	c := New(2, 100)
	now := time.Now()
	assert.Equal(t, Admit, c.TryAccept(now))
	assert.Equal(t, Admit, c.TryAccept(now))
	assert.Equal(t, RejectCapacity, c.TryAccept(now))
}

func TestAcceptRateRejectsBurst(t *testing.T) {
	c := New(100, 2)
	now := time.Now()
	assert.Equal(t, Admit, c.TryAccept(now))
	assert.Equal(t, Admit, c.TryAccept(now))
	assert.Equal(t, RejectRate, c.TryAccept(now))

	assert.Equal(t, Admit, c.TryAccept(now.Add(time.Second)))
}

func TestReleaseFreesCapacity(t *testing.T) {
	c := New(1, 100)
	now := time.Now()
	assert.Equal(t, Admit, c.TryAccept(now))
	assert.Equal(t, RejectCapacity, c.TryAccept(now))
	c.Release()
	assert.Equal(t, Admit, c.TryAccept(now))
}
