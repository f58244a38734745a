package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/smartbill-auth/cache"
	"github.com/stretchr/testify/require"
)

func TestMemoryMarkStore_MarkOnce(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryMarkStore()
	defer s.Close()

	first, err := s.Mark(ctx, "code-1", time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	second, err := s.Mark(ctx, "code-1", time.Minute)
	require.NoError(t, err)
	require.False(t, second)

	marked, err := s.IsMarked(ctx, "code-1")
	require.NoError(t, err)
	require.True(t, marked)

	marked, err = s.IsMarked(ctx, "code-2")
	require.NoError(t, err)
	require.False(t, marked)
}

func TestMemoryMarkStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryMarkStore()
	defer s.Close()

	_, err := s.Mark(ctx, "short", 20*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		marked, _ := s.IsMarked(ctx, "short")
		return !marked
	}, time.Second, 10*time.Millisecond)

	again, err := s.Mark(ctx, "short", time.Minute)
	require.NoError(t, err)
	require.True(t, again)
}

func TestMemoryMarkStore_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	s := cache.NewMemoryMarkStore()
	defer s.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Mark(ctx, "shared", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), winners.Load())
}

func TestHashToken(t *testing.T) {
	h := cache.HashToken("secret")
	require.Len(t, h, 64)
	require.Equal(t, h, cache.HashToken("secret"))
	require.NotEqual(t, h, cache.HashToken("secret2"))
	require.NotContains(t, h, "secret")
}
