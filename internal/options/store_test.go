package options_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuguard/menuguard/internal/options"
)

func newStore(t *testing.T) *options.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return options.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestStoreRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	restrictions := map[string][]string{"support": {"edit.php", "upload.php"}}
	require.NoError(t, store.Set(ctx, "menu_restrictions", restrictions))

	var loaded map[string][]string
	found, err := store.Get(ctx, "menu_restrictions", &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, restrictions, loaded)
}

func TestStoreMissingOption(t *testing.T) {
	store := newStore(t)

	var target map[string][]string
	found, err := store.Get(context.Background(), "absent", &target)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, target)
}

func TestStoreDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "marker", true))
	require.NoError(t, store.Delete(ctx, "marker"))
	require.NoError(t, store.Delete(ctx, "marker"))

	var v bool
	found, err := store.Get(ctx, "marker", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
