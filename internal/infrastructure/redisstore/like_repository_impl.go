package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/trade-ham/marketplace-api/internal/domain/repository"
)

func likedProductsKey(userID int64) string {
	return "user:like:products:" + strconv.FormatInt(userID, 10)
}

func likeCountKey(productID int64) string {
	return "product:like:count:" + strconv.FormatInt(productID, 10)
}

// Membership test and flip run in one script so two toggles from the same user
// can never both see "not liked". The counter moves with set membership.
var toggleScript = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
  redis.call("SREM", KEYS[1], ARGV[1])
  local n = redis.call("DECR", KEYS[2])
  if n <= 0 then
    redis.call("DEL", KEYS[2])
    n = 0
  end
  return {0, n}
end
redis.call("SADD", KEYS[1], ARGV[1])
return {1, redis.call("INCR", KEYS[2])}
`)

type LikeRepository struct {
	rdb *redis.Client
}

func NewLikeRepository(rdb *redis.Client) *LikeRepository {
	return &LikeRepository{rdb: rdb}
}

func (r *LikeRepository) Toggle(ctx context.Context, userID, productID int64) (bool, int64, error) {
	res, err := toggleScript.Run(ctx, r.rdb,
		[]string{likedProductsKey(userID), likeCountKey(productID)},
		strconv.FormatInt(productID, 10)).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("like toggle: unexpected reply %v", res)
	}
	return res[0] == 1, res[1], nil
}

func (r *LikeRepository) IsLiked(ctx context.Context, userID, productID int64) (bool, error) {
	return r.rdb.SIsMember(ctx, likedProductsKey(userID), strconv.FormatInt(productID, 10)).Result()
}

// LikedProductIDs returns the user's liked product ids in ascending order.
// Members that are not integers are ignored.
func (r *LikeRepository) LikedProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	members, err := r.rdb.SMembers(ctx, likedProductsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *LikeRepository) Count(ctx context.Context, productID int64) (int64, error) {
	n, err := r.rdb.Get(ctx, likeCountKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

var _ repository.LikeRepository = (*LikeRepository)(nil)
