package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStoreWithClient(client, time.Hour)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestSetAndCurrent(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	snap := Snapshot{
		UserID:    "hanako",
		Name:      "花子",
		Avatar:    "👤",
		Following: []string{"taro"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Set(ctx, "sess-1", snap))

	got, err := store.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, snap.UserID, got.UserID)
	assert.Equal(t, snap.Following, got.Following)
}

func TestCurrentMissingSession(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Current(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshKeepsTTL(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess-1", Snapshot{UserID: "hanako"}))
	mr.FastForward(30 * time.Minute)

	require.NoError(t, store.Refresh(ctx, "sess-1", Snapshot{UserID: "hanako", Name: "華子"}))

	got, err := store.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "華子", got.Name)

	// Refresh did not extend the lifetime: the original TTL still applies.
	mr.FastForward(31 * time.Minute)
	_, err = store.Current(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshMissingSessionIsNoOp(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx, "ghost", Snapshot{UserID: "hanako"}))

	_, err := store.Current(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClear(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess-1", Snapshot{UserID: "hanako"}))
	require.NoError(t, store.Clear(ctx, "sess-1"))

	_, err := store.Current(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing twice is fine.
	require.NoError(t, store.Clear(ctx, "sess-1"))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess-1", Snapshot{UserID: "hanako"}))
	mr.FastForward(2 * time.Hour)

	_, err := store.Current(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNoSession)
}
