package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBlacklistRepository 管理已登出的 access token 黑名单。
// 条目的 TTL 取 token 的剩余有效期：token 自然过期后黑名单条目
// 也就没有存在的必要。
type TokenBlacklistRepository interface {
	Add(ctx context.Context, tokenString string, ttl time.Duration) error
	Contains(ctx context.Context, tokenString string) (bool, error)
}

type redisTokenBlacklistRepository struct {
	redisClient *redis.Client
}

// NewTokenBlacklistRepository 创建一个新的 TokenBlacklistRepository 实例。
func NewTokenBlacklistRepository(redisClient *redis.Client) TokenBlacklistRepository {
	return &redisTokenBlacklistRepository{redisClient: redisClient}
}

func blacklistKey(tokenString string) string {
	return fmt.Sprintf("blacklist:%s", tokenString)
}

// Add 实现见接口说明。
func (r *redisTokenBlacklistRepository) Add(ctx context.Context, tokenString string, ttl time.Duration) error {
	if err := r.redisClient.Set(ctx, blacklistKey(tokenString), "1", ttl).Err(); err != nil {
		return fmt.Errorf("写入 token 黑名单失败: %w", err)
	}
	return nil
}

// Contains 实现见接口说明。
func (r *redisTokenBlacklistRepository) Contains(ctx context.Context, tokenString string) (bool, error) {
	exists, err := r.redisClient.Exists(ctx, blacklistKey(tokenString)).Result()
	if err != nil {
		return false, fmt.Errorf("查询 token 黑名单失败: %w", err)
	}
	return exists > 0, nil
}
