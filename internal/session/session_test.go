package session

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestLoadUnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	s, err := store.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, "missing", s.ID)
	assert.True(t, s.Cart.IsEmpty())
	assert.Nil(t, s.LastBuyer)
	assert.False(t, s.Dirty())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := New("abc")
	s.Cart.Add("1")
	s.Cart.Add("1")
	s.Cart.Add("3")
	s.SetLastBuyer(domain.BuyerInfo{Name: "Ada", Email: "ada@x.com", Phone: "1", Address: "2"})
	require.True(t, s.Dirty())

	require.NoError(t, store.Save(ctx, s))
	assert.False(t, s.Dirty())
	assert.True(t, mr.Exists("session:abc"))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Cart.Quantity("1"))
	assert.Equal(t, 1, loaded.Cart.Quantity("3"))
	require.NotNil(t, loaded.LastBuyer)
	assert.Equal(t, "ada@x.com", loaded.LastBuyer.Email)
	assert.False(t, loaded.Dirty())
}

func TestLoadSlidesExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := New("slide")
	s.Cart.Add("1")
	require.NoError(t, store.Save(ctx, s))

	mr.FastForward(50 * time.Minute)
	_, err := store.Load(ctx, "slide")
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)
	loaded, err := store.Load(ctx, "slide")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Cart.Quantity("1"))

	mr.FastForward(2 * time.Hour)
	expired, err := store.Load(ctx, "slide")
	require.NoError(t, err)
	assert.True(t, expired.Cart.IsEmpty())
}

func TestCorruptSessionIsReplaced(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	s, err := store.Load(context.Background(), "bad")
	require.NoError(t, err)
	assert.True(t, s.Cart.IsEmpty())
}

func TestDeleteAndContext(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s := New("gone")
	s.Cart.Add("1")
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Delete(ctx, "gone"))
	assert.False(t, mr.Exists("session:gone"))

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	got, ok := FromContext(NewContext(ctx, s))
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestLoadFailsWhenRedisIsDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Load(context.Background(), "x")
	assert.Error(t, err)
}
