package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) Del(context.Context, ...string) error {
	return errors.New("connection refused")
}

func TestKey(t *testing.T) {
	assert.Equal(t, "loomworks:idempotency:stripe:evt_1", Key("stripe", "evt_1"))
}

func TestGuard_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(NewMemoryStore(), "stripe", time.Hour)

	first, err := g.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := g.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := g.Claim(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestGuard_ReleaseAllowsReprocessing(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(NewMemoryStore(), "stripe", time.Hour)

	_, err := g.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, g.Release(ctx, "evt_1"))

	again, err := g.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestGuard_StoreErrors(t *testing.T) {
	g := NewGuard(failingStore{}, "stripe", 0)

	_, err := g.Claim(context.Background(), "evt_1")
	assert.ErrorContains(t, err, "claim event evt_1")
	assert.ErrorContains(t, g.Release(context.Background(), "evt_1"), "release event evt_1")
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, _ := s.SetNX(ctx, "k", "v", time.Minute)
	assert.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = s.SetNX(ctx, "k", "v", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = s.SetNX(ctx, "k", "v", time.Minute)
	assert.True(t, ok)
}
