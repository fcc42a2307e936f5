package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("payload"), time.Minute))

	e, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), e.Payload)
	assert.Equal(t, 60, e.TTLSeconds)
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Second))

	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(9 * time.Second)
	_, err = m.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryInvalidate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Invalidate(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryReapsExpiredOnWrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "old", []byte("v"), time.Second))
	now = now.Add(time.Hour)
	require.NoError(t, m.Set(ctx, "new", []byte("v"), time.Minute))

	m.mu.RLock()
	_, stillThere := m.entries["old"]
	m.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestMemoryDefaultTTLApplied(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(context.Background(), "k", []byte("v"), 0))

	e, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, int(DefaultTTL/time.Second), e.TTLSeconds)
}
