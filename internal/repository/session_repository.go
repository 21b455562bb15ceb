package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 管理每个浏览器会话的本地状态（当前激活的工作区）。
// 选择本身是会话级的临时状态，不落库：key 随会话过期，登出时显式清除。
type SessionRepository interface {
	// GetActiveWorkspace 返回会话记住的激活工作区 id，未设置时返回 (0, nil)。
	GetActiveWorkspace(ctx context.Context, sessionKey string) (uint, error)
	SetActiveWorkspace(ctx context.Context, sessionKey string, workspaceID uint) error
	Clear(ctx context.Context, sessionKey string) error
}

// sessionTTL 与 access token 的量级对齐，会话沉寂后自动过期。
const sessionTTL = 24 * time.Hour

type redisSessionRepository struct {
	redisClient *redis.Client
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(redisClient *redis.Client) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient}
}

func activeWorkspaceKey(sessionKey string) string {
	return fmt.Sprintf("session:%s:active_ws", sessionKey)
}

// GetActiveWorkspace 实现见接口说明。
func (r *redisSessionRepository) GetActiveWorkspace(ctx context.Context, sessionKey string) (uint, error) {
	val, err := r.redisClient.Get(ctx, activeWorkspaceKey(sessionKey)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("读取会话激活工作区失败: %w", err)
	}
	return uint(val), nil
}

// SetActiveWorkspace 实现见接口说明。
func (r *redisSessionRepository) SetActiveWorkspace(ctx context.Context, sessionKey string, workspaceID uint) error {
	err := r.redisClient.Set(ctx, activeWorkspaceKey(sessionKey), uint64(workspaceID), sessionTTL).Err()
	if err != nil {
		return fmt.Errorf("写入会话激活工作区失败: %w", err)
	}
	return nil
}

// Clear 丢弃会话的全部本地状态（登出时调用）。
func (r *redisSessionRepository) Clear(ctx context.Context, sessionKey string) error {
	return r.redisClient.Del(ctx, activeWorkspaceKey(sessionKey)).Err()
}
