package redisstore

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLikeRepository_Toggle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewLikeRepository(rdb)
	ctx := context.Background()

	liked, n, err := repo.Toggle(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), n)

	liked, n, err = repo.Toggle(ctx, 2, 42)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(2), n)

	ok, err := mr.SIsMember("user:like:products:1", "42")
	require.NoError(t, err)
	assert.True(t, ok)

	liked, n, err = repo.Toggle(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(1), n)

	isLiked, err := repo.IsLiked(ctx, 1, 42)
	require.NoError(t, err)
	assert.False(t, isLiked)

	_, n, err = repo.Toggle(ctx, 2, 42)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists("product:like:count:42"))
}

func TestLikeRepository_ConcurrentTogglesAlternate(t *testing.T) {
	_, rdb := newTestRedis(t)
	repo := NewLikeRepository(rdb)
	ctx := context.Background()

	const toggles = 9
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		likes int
	)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			liked, _, err := repo.Toggle(ctx, 1, 42)
			assert.NoError(t, err)
			if liked {
				mu.Lock()
				likes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// every toggle observed the previous one: 5 likes, 4 unlikes, liked at the end
	assert.Equal(t, 5, likes)
	liked, err := repo.IsLiked(ctx, 1, 42)
	require.NoError(t, err)
	assert.True(t, liked)
	n, err := repo.Count(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLikeRepository_LikedProductIDsSorted(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewLikeRepository(rdb)

	_, err := mr.SAdd("user:like:products:1", "10", "2", "7", "junk")
	require.NoError(t, err)

	ids, err := repo.LikedProductIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 7, 10}, ids)

	ids, err = repo.LikedProductIDs(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLikeRepository_CountMissingIsZero(t *testing.T) {
	_, rdb := newTestRedis(t)
	n, err := NewLikeRepository(rdb).Count(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, n)
}
