package revoke

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notehive:revoked:"

// Store 保存已注销的令牌。
//
// 每个条目以令牌自身的过期时间为 TTL，由 redis 自动清除，
// 进程内不维护任何全局可变状态。实例在 NewServer 中创建一次，
// 按引用传给需要它的组件。
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Revoke 将令牌加入撤销集合，到 expiresAt 为止。
//
// expiresAt 已经过去时不写入（令牌本身已失效）。
func (s *Store) Revoke(ctx context.Context, tokenString string, expiresAt time.Time) error {
	if s == nil || s.rdb == nil || tokenString == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := keyPrefix + hashToken(tokenString)
	if err := s.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke set: %w", err)
	}
	return nil
}

// IsRevoked 查询令牌是否已被注销。
func (s *Store) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	if s == nil || s.rdb == nil || tokenString == "" {
		return false, nil
	}
	key := keyPrefix + hashToken(tokenString)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("revoke exists: %w", err)
	}
	return n > 0, nil
}

func hashToken(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
