package oauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStateStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewStateStore(client), mr
}

func TestStateStore_GenerateAndValidate(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "https://example.com/after-login")
	require.NoError(t, err)
	assert.Len(t, state, 64) // 32 字节 hex

	redirectURI, err := store.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/after-login", redirectURI)
}

func TestStateStore_Validate_Replay(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "")
	require.NoError(t, err)

	_, err = store.ValidateState(ctx, state)
	require.NoError(t, err)

	// 二次使用同一 state 必须失败
	_, err = store.ValidateState(ctx, state)
	assert.Error(t, err)
}

func TestStateStore_Validate_Unknown(t *testing.T) {
	store, _ := setupStateStore(t)

	_, err := store.ValidateState(context.Background(), "never-issued")
	assert.Error(t, err)
}

func TestStateStore_Validate_Empty(t *testing.T) {
	store, _ := setupStateStore(t)

	_, err := store.ValidateState(context.Background(), "")
	assert.Error(t, err)
}

func TestStateStore_Generate_Unique(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	s1, err := store.GenerateState(ctx, "")
	require.NoError(t, err)
	s2, err := store.GenerateState(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}
