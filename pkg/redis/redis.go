package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shiftdesk/backend/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单与写接口限流
type Client struct {
	rdb    goredis.Cmdable
	closer func() error
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, closer: rdb.Close, logger: logger}, nil
}

// NewFromCmdable 复用已有连接构造客户端（如集群客户端）
func NewFromCmdable(rdb goredis.Cmdable, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, closer: func() error { return nil }, logger: logger}
}

// ── Token 黑名单 ──

const blacklistPrefix = "shiftdesk:token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 限流 ──

const rateLimitPrefix = "shiftdesk:ratelimit:"

// CheckRateLimit 滑动窗口限流：窗口内请求数未超过 limit 时放行。
// 每次调用都会记录一次请求，返回是否放行与窗口内已有请求数。
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	now := time.Now()
	redisKey := rateLimitPrefix + key
	member := strconv.FormatInt(now.UnixNano(), 10)
	windowStart := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", windowStart)
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("限流计数失败: %w", err)
	}

	n := count.Val()
	return n <= int64(limit), n, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.closer()
}
