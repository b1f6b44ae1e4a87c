package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/issue-locator/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	want := domain.GeocodeResult{Lat: 51.5, Lon: -0.12, DisplayName: "10 Downing St", City: "London"}
	require.NoError(t, store.Set(ctx, "rev:51.500000,-0.120000", want))

	got, ok, err := store.Get(ctx, "rev:51.500000,-0.120000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	assert.True(t, mr.Exists(keyPrefix+"rev:51.500000,-0.120000"))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"rev:51.500000,-0.120000"))
}

func TestStore_Miss(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	_, ok, err := store.Get(context.Background(), "rev:nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t, 24*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", domain.GeocodeResult{DisplayName: "x"}))
	mr.FastForward(24 * time.Hour)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptEntry(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	require.NoError(t, mr.Set(keyPrefix+"k", "{broken"))

	_, ok, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestStore_ServerDown(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	mr.Close()

	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, store.Set(context.Background(), "k", domain.GeocodeResult{DisplayName: "x"}))
	require.Error(t, store.CheckReadiness(context.Background()))
}

func TestStore_CheckReadiness(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	require.NoError(t, store.CheckReadiness(context.Background()))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("http://not-redis")
	require.Error(t, err)
}
