package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/homestay-booking-backend/internal/common/cache"
	"github.com/dumeirei/homestay-booking-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Scope       string        // 限流范围，拼入键名
	Limit       int           // 窗口内允许次数
	Window      time.Duration // 时间窗口
	KeyFunc     func(*gin.Context) string
}

// RateLimit 固定窗口限流中间件，Redis 不可用时放行
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.RedisClient == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		id := c.ClientIP()
		if cfg.KeyFunc != nil {
			id = cfg.KeyFunc(c)
		}
		key := cache.BuildKey(cache.KeyPrefixRateLimit, cfg.Scope, id)
		ctx := c.Request.Context()

		count, err := cfg.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			cfg.RedisClient.Expire(ctx, key, cfg.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		if int(count) > cfg.Limit {
			ttl, _ := cfg.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))

		c.Next()
	}
}

// IPRateLimit 按 IP 限流
func IPRateLimit(client *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: client,
		Scope:       scope,
		Limit:       limit,
		Window:      window,
	})
}
