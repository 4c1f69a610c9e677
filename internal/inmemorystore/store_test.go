package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/flowkeeper/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get a key that doesn't exist yet
	v, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "k", []byte("hello")))

	v, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), v)

	// Returned slices are copies
	v[0] = 'j'
	v, _, _ = s.Get(ctx, "k")
	assert.Equal(t, []byte("hello"), v)
}

func TestDeleteAndKeys(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "p_a", []byte("1")))
	require.NoError(t, s.Set(ctx, "p_b", []byte("2")))
	require.NoError(t, s.Set(ctx, "other", []byte("3")))

	keys, err := s.Keys(ctx, "p_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p_a", "p_b"}, keys)

	require.NoError(t, s.Delete(ctx, "p_a"))
	require.NoError(t, s.Delete(ctx, "never-existed"))

	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p_b", "other"}, keys)
}

func TestQuota(t *testing.T) {
	s := New(WithQuota(10))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("12345")))
	require.NoError(t, s.Set(ctx, "b", []byte("12345")))
	assert.ErrorIs(t, s.Set(ctx, "c", []byte("1")), kvstore.ErrQuotaExceeded)

	// Overwriting reuses the previous value's budget
	require.NoError(t, s.Set(ctx, "a", []byte("abcde")))

	require.NoError(t, s.Delete(ctx, "b"))
	require.NoError(t, s.Set(ctx, "c", []byte("1")))
}

func TestClose(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, kvstore.ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "a", nil), kvstore.ErrClosed)
	_, err = s.Keys(ctx, "")
	assert.ErrorIs(t, err, kvstore.ErrClosed)
}

// TestStore_ConcurrentAccess verifies that the store can be safely accessed by
// multiple goroutines simultaneously without data races or lost writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("ainyx_flow_app-%d", i)
			if err := s.Set(ctx, key, []byte(fmt.Sprint(i))); err != nil {
				t.Errorf("set %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			v, ok, err := s.Get(ctx, fmt.Sprintf("ainyx_flow_app-%d", i))
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), string(v), "mismatched value for key %d", i)
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys(ctx, "ainyx_flow_")
	require.NoError(t, err)
	assert.Len(t, keys, numGoroutines)
}
