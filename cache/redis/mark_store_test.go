package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMarkStore_Key(t *testing.T) {
	require.Equal(t, "smartbill:mark:abc", NewMarkStore(nil, "smartbill").redisKey("abc"))
	require.Equal(t, "mark:abc", NewMarkStore(nil, "").redisKey("abc"))
}

func TestNewFromURL(t *testing.T) {
	s, err := NewFromURL("redis://localhost:6379/2", "smartbill")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewFromURL("http://not-redis", "smartbill")
	require.Error(t, err)
}

func TestMarkStore_UnreachableServer(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewMarkStore(client, "test")
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok, err := s.Mark(ctx, "code", time.Minute)
	require.Error(t, err)
	require.False(t, ok)

	_, err = s.IsMarked(ctx, "code")
	require.Error(t, err)
}

func newTestStore(t *testing.T) (*MarkStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewMarkStore(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "smartbill")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestMarkStore_FirstClaimWins(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	marked, err := s.IsMarked(ctx, "code:abc")
	require.NoError(t, err)
	require.False(t, marked)

	first, err := s.Mark(ctx, "code:abc", time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	second, err := s.Mark(ctx, "code:abc", time.Minute)
	require.NoError(t, err)
	require.False(t, second)

	marked, err = s.IsMarked(ctx, "code:abc")
	require.NoError(t, err)
	require.True(t, marked)

	require.True(t, mr.Exists("smartbill:mark:code:abc"))
	require.Equal(t, time.Minute, mr.TTL("smartbill:mark:code:abc"))

	other, err := s.Mark(ctx, "code:def", time.Minute)
	require.NoError(t, err)
	require.True(t, other)
}

func TestMarkStore_Expiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Mark(ctx, "revoked:jti-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	marked, err := s.IsMarked(ctx, "revoked:jti-1")
	require.NoError(t, err)
	require.False(t, marked)

	ok, err = s.Mark(ctx, "revoked:jti-1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMarkStore_SharedAcrossInstances(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	peer := NewMarkStore(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "smartbill")
	defer peer.Close()

	ok, err := s.Mark(ctx, "code:shared", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = peer.Mark(ctx, "code:shared", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, peer.Ping(ctx))
}
