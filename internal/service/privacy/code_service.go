// Package privacy 提供验证码与个人资料删除
package privacy

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/homestay-booking-backend/internal/common/cache"
	"github.com/dumeirei/homestay-booking-backend/internal/common/errors"
	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/utils"
)

// Purpose 验证码用途
type Purpose string

// PurposeErasure 删除个人资料
const PurposeErasure Purpose = "erasure"

// CodeSender 验证码寄送
type CodeSender interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// CodeServiceConfig 验证码服务配置
type CodeServiceConfig struct {
	CodeLength  int
	ExpireIn    time.Duration
	ResendAfter time.Duration
	DailyLimit  int64
	MaxAttempts int64
}

// DefaultCodeServiceConfig 默认配置
func DefaultCodeServiceConfig() *CodeServiceConfig {
	return &CodeServiceConfig{
		CodeLength:  6,
		ExpireIn:    10 * time.Minute,
		ResendAfter: time.Minute,
		DailyLimit:  10,
		MaxAttempts: 5,
	}
}

// storedCode Redis 中保存的验证码，读取时同时检查 expires_at
type storedCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// CodeService 验证码服务
type CodeService struct {
	redis  *redis.Client
	sender CodeSender
	cfg    CodeServiceConfig
	now    func() time.Time
}

// NewCodeService 创建验证码服务
func NewCodeService(client *redis.Client, sender CodeSender, cfg *CodeServiceConfig) *CodeService {
	def := DefaultCodeServiceConfig()
	if cfg == nil {
		cfg = def
	}
	c := *cfg
	if c.CodeLength <= 0 {
		c.CodeLength = def.CodeLength
	}
	if c.ExpireIn <= 0 {
		c.ExpireIn = def.ExpireIn
	}
	if c.ResendAfter <= 0 {
		c.ResendAfter = def.ResendAfter
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = def.DailyLimit
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	return &CodeService{redis: client, sender: sender, cfg: c, now: time.Now}
}

func (s *CodeService) codeKey(purpose Purpose, subject string) string {
	return cache.BuildKey(cache.KeyPrefixVerify, string(purpose), subject)
}

func (s *CodeService) limitKey(purpose Purpose, subject string) string {
	return cache.BuildKey(cache.KeyPrefixVerify, "limit", string(purpose), subject)
}

func (s *CodeService) dayKey(purpose Purpose, subject string) string {
	return cache.BuildKey(cache.KeyPrefixVerify, "day", string(purpose), subject)
}

func (s *CodeService) failKey(purpose Purpose, subject string) string {
	return cache.BuildKey(cache.KeyPrefixVerify, "fail", string(purpose), subject)
}

// Issue 生成并寄送验证码，同一对象在 ResendAfter 内只能寄送一次
func (s *CodeService) Issue(ctx context.Context, subject string, purpose Purpose) error {
	ok, err := s.redis.SetNX(ctx, s.limitKey(purpose, subject), "1", s.cfg.ResendAfter).Result()
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	if !ok {
		return errors.ErrVerifyCodeSendTooFast
	}

	dayKey := s.dayKey(purpose, subject)
	count, err := s.redis.Incr(ctx, dayKey).Result()
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	if count == 1 {
		s.redis.Expire(ctx, dayKey, 24*time.Hour)
	}
	if count > s.cfg.DailyLimit {
		return errors.ErrRateLimitExceed.WithMessage("今日验证码寄送次数已达上限")
	}

	now := utils.NormalizeTime(s.now())
	code := utils.GenerateRandomNumber(s.cfg.CodeLength)
	key := s.codeKey(purpose, subject)
	stored := &storedCode{Code: code, ExpiresAt: now.Add(s.cfg.ExpireIn), IssuedAt: now}
	if err := cache.SetJSON(ctx, s.redis, key, stored, s.cfg.ExpireIn); err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	s.redis.Del(ctx, s.failKey(purpose, subject))

	if err := s.sender.SendCode(ctx, subject, code, s.cfg.ExpireIn); err != nil {
		s.redis.Del(ctx, key, s.limitKey(purpose, subject))
		logger.Warn("验证码寄送失败", logger.Module("privacy"), logger.String("subject", utils.MaskEmail(subject)), logger.Err(err))
		return errors.ErrVerifyCodeSendFailed.WithError(err)
	}
	return nil
}

// Verify 校验验证码，成功后立即失效
// 错误次数达到上限时验证码作废
func (s *CodeService) Verify(ctx context.Context, subject string, purpose Purpose, code string) error {
	key := s.codeKey(purpose, subject)

	var stored storedCode
	if err := cache.GetJSON(ctx, s.redis, key, &stored); err != nil {
		if stderrors.Is(err, redis.Nil) {
			return errors.ErrVerifyCodeExpired
		}
		return errors.ErrCacheError.WithError(err)
	}
	if !s.now().Before(stored.ExpiresAt) {
		s.redis.Del(ctx, key)
		return errors.ErrVerifyCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		failKey := s.failKey(purpose, subject)
		fails, err := s.redis.Incr(ctx, failKey).Result()
		if err == nil {
			s.redis.Expire(ctx, failKey, s.cfg.ExpireIn)
			if fails >= s.cfg.MaxAttempts {
				s.redis.Del(ctx, key, failKey)
			}
		}
		return errors.ErrVerifyCodeInvalid
	}

	// 并发校验时只有删除成功的一方通过
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	if n == 0 {
		return errors.ErrVerifyCodeExpired
	}
	s.redis.Del(ctx, s.failKey(purpose, subject))
	return nil
}

// ExpireIn 验证码有效期
func (s *CodeService) ExpireIn() time.Duration {
	return s.cfg.ExpireIn
}
