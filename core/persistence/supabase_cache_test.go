package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupabaseCache_RejectsEmptyURL(t *testing.T) {
	cache, err := NewSupabaseCache("", "anon-key")
	assert.Error(t, err)
	assert.Nil(t, cache)
}

func TestNewSupabaseCache_BuildsClientForAWellFormedURL(t *testing.T) {
	cache, err := NewSupabaseCache("https://example.supabase.co", "anon-key")
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.NoError(t, cache.Close())
}

func TestSupabaseCache_GetDegradesToMissOnUnreachableProject(t *testing.T) {
	cache, err := NewSupabaseCache("https://nonexistent.invalid.supabase.co", "anon-key")
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), "some-key")
	assert.False(t, ok)
}

func TestSupabaseCache_SetNeverPanicsOnUnreachableProject(t *testing.T) {
	cache, err := NewSupabaseCache("https://nonexistent.invalid.supabase.co", "anon-key")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		cache.Set(context.Background(), "some-key", json.RawMessage(`{"a":1}`), time.Minute)
	})
}

func TestSupabaseCache_ImplementsCacheInterface(t *testing.T) {
	var _ Cache = (*SupabaseCache)(nil)
}
